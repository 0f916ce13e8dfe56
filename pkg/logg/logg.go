package logg

const (
	Layer     = "layer"
	Operation = "operation"
	Selector  = "selector"
	URL       = "url"
	Element   = "element"
	Strategy  = "strategy"
	TestFile  = "test_file"
	TestName  = "test_name"
)

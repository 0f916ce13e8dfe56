package main

import (
	"locator-healer/internal/bootstrap"
)

func main() {
	bootstrap.NewApp().Run()
}

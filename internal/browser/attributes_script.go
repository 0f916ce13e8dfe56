package browser

// captureAttributesScript extracts the observable attribute snapshot of a
// single element. It also stamps the element with a stable data-healer-ref so
// later interactions can target exactly this node; the stamp itself is kept
// out of the data-* map.
func captureAttributesScript() string {
	return `el => {
		const rect = el.getBoundingClientRect();

		if (!el.dataset.healerRef) {
			el.dataset.healerRef = 'hr-' + Math.random().toString(36).slice(2, 10);
		}

		const data = {};
		for (const attr of el.attributes) {
			if (attr.name.startsWith('data-') && attr.name !== 'data-healer-ref') {
				data[attr.name] = attr.value;
			}
		}

		let text = (el.innerText || '').trim();
		if (text.length > 200) {
			text = text.substring(0, 200);
		}

		let renderedText = (el.textContent || '').trim();
		if (renderedText.length > 200) {
			renderedText = renderedText.substring(0, 200);
		}

		const getAttr = (name) => el.getAttribute(name) || '';
		const parent = el.parentElement;

		return {
			ref: el.dataset.healerRef,
			tag: el.tagName.toLowerCase(),
			text: text,
			renderedText: renderedText,
			class: getAttr('class'),
			id: getAttr('id'),
			name: getAttr('name'),
			placeholder: getAttr('placeholder'),
			title: getAttr('title'),
			ariaLabel: getAttr('aria-label'),
			role: getAttr('role'),
			type: getAttr('type'),
			href: getAttr('href'),
			src: getAttr('src'),
			value: (el.value !== undefined && el.value !== null) ? String(el.value) : '',
			data: data,
			x: rect.left,
			y: rect.top,
			width: rect.width,
			height: rect.height,
			parent: parent ? {
				tag: parent.tagName.toLowerCase(),
				class: parent.getAttribute('class') || '',
				id: parent.getAttribute('id') || ''
			} : null
		};
	}`
}

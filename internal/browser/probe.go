package browser

// probeScript measures the desktop layout: text contrast, target sizes and
// focus visibility. Field names match page.Probe's JSON tags.
const probeScript = `() => {
	const LIMIT = 300;

	function selector(el) {
		if (el.id) return '#' + el.id;
		const tag = el.tagName.toLowerCase();
		const cls = Array.from(el.classList).filter(c => c.length < 30).slice(0, 2);
		return cls.length ? tag + '.' + cls.join('.') : tag;
	}

	function parseRGB(s) {
		const m = s.match(/rgba?\(([^)]+)\)/);
		if (!m) return null;
		const p = m[1].split(/[\s,\/]+/).filter(Boolean).map(Number);
		return { r: p[0], g: p[1], b: p[2], a: p.length > 3 ? p[3] : 1 };
	}

	function lum(c) {
		const ch = [c.r, c.g, c.b].map(v => {
			v /= 255;
			return v <= 0.03928 ? v / 12.92 : Math.pow((v + 0.055) / 1.055, 2.4);
		});
		return 0.2126 * ch[0] + 0.7152 * ch[1] + 0.0722 * ch[2];
	}

	function background(el) {
		for (let n = el; n && n.nodeType === 1; n = n.parentElement) {
			const cs = getComputedStyle(n);
			if (cs.backgroundImage && cs.backgroundImage !== 'none') return null;
			const bg = parseRGB(cs.backgroundColor);
			if (bg && bg.a >= 0.99) return bg;
		}
		return { r: 255, g: 255, b: 255, a: 1 };
	}

	function visible(el) {
		const cs = getComputedStyle(el);
		if (cs.display === 'none' || cs.visibility === 'hidden' || Number(cs.opacity) === 0) return false;
		const r = el.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	}

	const contrast = [];
	const walker = document.createTreeWalker(document.body || document.documentElement, NodeFilter.SHOW_TEXT);
	const seen = new Set();
	while (walker.nextNode() && contrast.length < LIMIT) {
		const t = walker.currentNode;
		if (!t.nodeValue || !t.nodeValue.trim()) continue;
		const el = t.parentElement;
		if (!el || seen.has(el) || !visible(el)) continue;
		seen.add(el);
		const cs = getComputedStyle(el);
		const fg = parseRGB(cs.color);
		const bg = background(el);
		if (!fg || !bg || fg.a < 0.99) continue;
		const l1 = lum(fg), l2 = lum(bg);
		const ratio = (Math.max(l1, l2) + 0.05) / (Math.min(l1, l2) + 0.05);
		const size = parseFloat(cs.fontSize) || 16;
		const bold = Number(cs.fontWeight) >= 700 || cs.fontWeight === 'bold';
		contrast.push({ selector: selector(el), ratio: ratio, large: size >= 24 || (bold && size >= 18.66) });
	}

	const targets = [];
	const interactive = document.querySelectorAll('a[href], button, input:not([type=hidden]), select, textarea, [role=button], [role=link], [tabindex]:not([tabindex="-1"])');
	for (const el of interactive) {
		if (targets.length >= LIMIT) break;
		if (!visible(el)) continue;
		const r = el.getBoundingClientRect();
		let inline = false;
		if (el.tagName === 'A' && getComputedStyle(el).display === 'inline' && el.parentElement) {
			const own = (el.textContent || '').trim().length;
			const around = (el.parentElement.textContent || '').trim().length;
			inline = around > own + 20;
		}
		targets.push({ selector: selector(el), width: r.width, height: r.height, inline: inline });
	}

	const focus = [];
	const snapshot = el => {
		const cs = getComputedStyle(el);
		return [cs.outlineStyle, cs.outlineWidth, cs.outlineColor, cs.boxShadow, cs.borderColor, cs.backgroundColor, cs.textDecorationLine].join('|');
	};
	let tested = 0;
	for (const el of interactive) {
		if (tested >= 50) break;
		if (!visible(el) || typeof el.focus !== 'function') continue;
		tested++;
		const before = snapshot(el);
		el.focus({ preventScroll: true });
		const focused = document.activeElement === el;
		const after = snapshot(el);
		el.blur();
		if (!focused) continue;
		focus.push({ selector: selector(el), visible: before !== after });
	}

	return JSON.stringify({ contrast: contrast, targets: targets, focus: focus });
}`

// mobileScript runs after the viewport is narrowed to the reflow width
const mobileScript = `() => {
	const LIMIT = 150;

	function parseRGB(s) {
		const m = s.match(/rgba?\(([^)]+)\)/);
		if (!m) return null;
		const p = m[1].split(/[\s,\/]+/).filter(Boolean).map(Number);
		return { r: p[0], g: p[1], b: p[2], a: p.length > 3 ? p[3] : 1 };
	}

	function lum(c) {
		const ch = [c.r, c.g, c.b].map(v => {
			v /= 255;
			return v <= 0.03928 ? v / 12.92 : Math.pow((v + 0.055) / 1.055, 2.4);
		});
		return 0.2126 * ch[0] + 0.7152 * ch[1] + 0.0722 * ch[2];
	}

	function background(el) {
		for (let n = el; n && n.nodeType === 1; n = n.parentElement) {
			const cs = getComputedStyle(n);
			if (cs.backgroundImage && cs.backgroundImage !== 'none') return null;
			const bg = parseRGB(cs.backgroundColor);
			if (bg && bg.a >= 0.99) return bg;
		}
		return { r: 255, g: 255, b: 255, a: 1 };
	}

	const contrastMobile = [];
	const seen = new Set();
	const walker = document.createTreeWalker(document.body || document.documentElement, NodeFilter.SHOW_TEXT);
	while (walker.nextNode() && contrastMobile.length < LIMIT) {
		const el = walker.currentNode.parentElement;
		if (!el || seen.has(el) || !walker.currentNode.nodeValue.trim()) continue;
		seen.add(el);
		const cs = getComputedStyle(el);
		if (cs.display === 'none' || cs.visibility === 'hidden') continue;
		const r = el.getBoundingClientRect();
		if (r.width === 0 || r.height === 0) continue;
		const fg = parseRGB(cs.color);
		const bg = background(el);
		if (!fg || !bg || fg.a < 0.99) continue;
		const l1 = lum(fg), l2 = lum(bg);
		const size = parseFloat(cs.fontSize) || 16;
		const bold = Number(cs.fontWeight) >= 700 || cs.fontWeight === 'bold';
		contrastMobile.push({
			selector: el.id ? '#' + el.id : el.tagName.toLowerCase(),
			ratio: (Math.max(l1, l2) + 0.05) / (Math.min(l1, l2) + 0.05),
			large: size >= 24 || (bold && size >= 18.66)
		});
	}

	const root = document.scrollingElement || document.documentElement;
	return JSON.stringify({
		contrast_mobile: contrastMobile,
		overflow_x: root.scrollWidth > window.innerWidth + 1,
		viewport_width: window.innerWidth
	});
}`

package render

// htmlTemplate is the standalone report page. Cards are rendered
// client-side from the embedded JSON so the view toggle and sort selector
// work without a server.
const htmlTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.PageTitle}}</title>
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <style>
    :root {
      --bg: #ffffff; --text: #0b1220; --card: #ffffff; --muted: #5b6576;
      --pill: #eef2f8; --accent: #1f6feb; --accent2: #0b5bd3; --border: #e2e8f0;
      --shadow: 0 6px 24px rgba(0,0,0,0.08);
    }
    * { box-sizing: border-box; }
    body { margin: 0; font-family: system-ui, -apple-system, Segoe UI, Roboto, Helvetica, Arial, sans-serif; background: var(--bg); color: var(--text); }
    header { position: sticky; top: 0; z-index: 10; background: rgba(255,255,255,0.9); backdrop-filter: blur(8px); border-bottom: 1px solid var(--border); }
    .wrap { max-width: 1100px; margin: 0 auto; padding: 1rem; }
    h1 { margin: 0.2rem 0 0.6rem; font-size: 1.35rem; }
    .toolbar { display: flex; gap: 1rem; flex-wrap: wrap; align-items: center; }
    .group { display: flex; gap: 0.5rem; align-items: center; padding: 0.5rem 0; }
    select { background: var(--card); color: var(--text); border: 1px solid var(--border); border-radius: 12px; padding: 0.35rem 0.6rem; font-size: 0.95rem; cursor: pointer; }
    .pill { display: inline-flex; align-items: center; gap: 6px; background: var(--pill); border: 1px solid var(--border); border-radius: 12px; padding: 0.2rem 0.55rem; color: var(--accent2); font-weight: 600; font-size: 0.9rem; }
    .pill a { text-decoration: none; color: var(--accent2); font-weight: 600; }
    .pill.warn { color: #9a3412; background: #fff7ed; }
    .notice { color: var(--muted); font-size: 0.88rem; padding: 0.2rem 0 0.4rem; }
    .cards { display: grid; grid-template-columns: repeat(auto-fill, minmax(320px, 1fr)); gap: 12px; padding: 1rem; }
    .card { background: var(--card); border: 1px solid var(--border); border-radius: 16px; padding: 0.9rem 0.95rem 0.7rem; box-shadow: var(--shadow); }
    .row { display: flex; flex-wrap: wrap; gap: 6px; margin-bottom: 8px; }
    .title { font-size: 1.02rem; font-weight: 700; margin: 0 0 5px; line-height: 1.25; }
    .sub { font-size: 0.92rem; color: var(--muted); margin-bottom: 8px; }
    details.abs { border: 1px dashed var(--border); border-radius: 10px; padding: 6px 8px; margin: 6px 0 10px; background: #fafcff; }
    details.abs > summary { cursor: pointer; color: var(--accent); font-weight: 600; }
    ul.occs { list-style: none; padding-left: 0; margin: 0; }
    ul.occs li { border: 1px solid var(--border); border-radius: 10px; padding: 6px 8px; margin-bottom: 6px; background: #fbfdff; }
    details.ctx summary { list-style: none; display: inline-flex; align-items: center; gap: 6px; cursor: pointer; }
    .occ-meta { color: var(--muted); font-size: 0.85rem; }
    .occ-text { font-family: ui-monospace, SFMono-Regular, Menlo, monospace; font-size: 0.88rem; white-space: pre-wrap; color: #2b3850; padding-top: 4px; }
    .mutetext { color: var(--muted); }
    @media print {
      .toolbar { display: none !important; }
      details.abs > summary { display: none !important; }
      .cards { display: block; }
      .card { break-inside: avoid; margin-bottom: 12pt; }
    }
  </style>
</head>
<body>
  <header>
    <div class="wrap">
      <h1>{{.PageTitle}}</h1>
      {{if not .Artifacts.PDF}}
      <div class="notice">No rendered PDF was found, so occurrences show source positions only.</div>
      {{else if not .Artifacts.SyncTeXTool}}
      <div class="notice">The synctex tool was not available; page mapping is disabled for this report.</div>
      {{else if not .Artifacts.SyncTeXData}}
      <div class="notice">No .synctex data was found next to the PDF; page mapping may be empty. Compile with -synctex=1.</div>
      {{end}}
      <div class="toolbar">
        <div class="group">
          <span class="mutetext">Occurrences view:</span>
          <select id="occView">
            <option value="pdf">PDF (page &bull; line)</option>
            <option value="tex">Source lines</option>
          </select>
        </div>
        <div class="group">
          <span class="mutetext">Sort by:</span>
          <select id="sortMode">
            <option value="occ">First occurrence</option>
            <option value="year">Year</option>
            <option value="bib">.bib order</option>
          </select>
        </div>
      </div>
    </div>
  </header>

  <main class="wrap">
    <div id="cards" class="cards"></div>
  </main>
  <footer class="wrap mutetext">Generated by refcollect</footer>

<script>
  const DATA = {{.CardsJSON}};
  const DEFAULT_VIEW = "{{.DefaultView}}";

  function e(tag, opts) {
    const el = document.createElement(tag);
    if (!opts) return el;
    if (opts.class) el.className = opts.class;
    if (opts.text != null) el.textContent = opts.text;
    if (opts.attrs) for (const [k, v] of Object.entries(opts.attrs)) el.setAttribute(k, v);
    return el;
  }

  function renderCard(ref) {
    const card = e('div', {class: 'card'});

    const pillrow = e('div', {class: 'row'});
    pillrow.appendChild(e('span', {class: 'pill', text: String(ref.orderNum ?? '')}));
    pillrow.appendChild(e('span', {class: 'pill', text: ref.key || '(no key)'}));
    if (ref.unknown) {
      pillrow.appendChild(e('span', {class: 'pill warn', text: 'no bib entry'}));
    }
    if (ref.url) {
      const pill = e('span', {class: 'pill'});
      const a = e('a', {text: 'link', attrs: {href: ref.url, target: '_blank', rel: 'noopener'}});
      pill.appendChild(a); pillrow.appendChild(pill);
    }
    if (ref.doi) {
      const pill = e('span', {class: 'pill'});
      const a = e('a', {text: 'doi', attrs: {href: 'https://doi.org/' + encodeURIComponent(ref.doi), target: '_blank', rel: 'noopener'}});
      pill.appendChild(a); pillrow.appendChild(pill);
    }
    card.appendChild(pillrow);

    card.appendChild(e('div', {class: 'title', text: ref.title || (ref.unknown ? '(unknown entry)' : '(no title)')}));
    const yearTxt = ref.year ? ' (' + ref.year + ')' : '';
    card.appendChild(e('div', {class: 'sub', text: (ref.authors && ref.authors.length ? ref.authors.join(', ') : '(authors unknown)') + yearTxt}));

    if (ref.abstract) {
      const det = e('details', {class: 'abs'});
      det.appendChild(e('summary', {text: 'Abstract'}));
      det.appendChild(e('div', {text: ref.abstract}));
      card.appendChild(det);
    }

    card.appendChild(e('div', {class: 'mutetext', text: 'Occurrences'}));
    const ul = e('ul', {class: 'occs'});
    (ref.occurrences || []).forEach((occ) => {
      const li = e('li');
      const ctx = e('details', {class: 'ctx'});
      const summary = e('summary');
      const meta = e('span', {class: 'occ-meta'});

      const texLabel = 'line ' + occ.line;
      let pdfLabel = '';
      if (occ.pdfPage != null) {
        pdfLabel = 'page ' + occ.pdfPage + (occ.pdfLineno != null ? ' • line ' + occ.pdfLineno : '');
      }
      meta.setAttribute('data-tex-label', texLabel);
      meta.setAttribute('data-pdf-label', pdfLabel);
      meta.textContent = (DEFAULT_VIEW === 'pdf' && pdfLabel) ? pdfLabel : texLabel;

      summary.appendChild(meta);
      ctx.appendChild(summary);
      ctx.appendChild(e('div', {class: 'occ-text', text: occ.snippet || ''}));
      li.appendChild(ctx);
      ul.appendChild(li);
    });
    card.appendChild(ul);

    card.setAttribute('data-year', ref.year != null && ref.year > 0 ? String(ref.year) : '');
    card.setAttribute('data-bib', ref.bibIndex >= 0 ? String(ref.bibIndex) : '');
    card.setAttribute('data-occ', String(ref.firstSeq ?? 0));
    return card;
  }

  function renderCards() {
    const cont = document.getElementById('cards');
    cont.innerHTML = '';
    DATA.forEach(ref => cont.appendChild(renderCard(ref)));
  }

  function applyOccView(view) {
    document.querySelectorAll('.occ-meta').forEach(m => {
      const pdf = m.getAttribute('data-pdf-label');
      m.textContent = (view === 'pdf' && pdf) ? pdf : m.getAttribute('data-tex-label');
    });
  }

  function sortCards(mode) {
    const cont = document.getElementById('cards');
    const cards = Array.from(cont.children);
    const num = (el, attr, def) => {
      const v = el.getAttribute(attr);
      if (!v) return def;
      const n = Number(v);
      return Number.isFinite(n) ? n : def;
    };
    if (mode === 'year') {
      // Missing years sort last; ties preserve first occurrence.
      cards.sort((a, b) => num(a, 'data-year', 1e9) - num(b, 'data-year', 1e9) || num(a, 'data-occ', 0) - num(b, 'data-occ', 0));
    } else if (mode === 'bib') {
      cards.sort((a, b) => num(a, 'data-bib', 1e9) - num(b, 'data-bib', 1e9) || num(a, 'data-occ', 0) - num(b, 'data-occ', 0));
    } else {
      cards.sort((a, b) => num(a, 'data-occ', 0) - num(b, 'data-occ', 0));
    }
    cards.forEach(c => cont.appendChild(c));
  }

  (function() {
    renderCards();
    const occSel = document.getElementById('occView');
    const sortSel = document.getElementById('sortMode');
    occSel.value = DEFAULT_VIEW;
    applyOccView(DEFAULT_VIEW);
    sortCards('occ');
    occSel.addEventListener('change', () => applyOccView(occSel.value));
    sortSel.addEventListener('change', () => sortCards(sortSel.value));
  })();
</script>
</body>
</html>
`

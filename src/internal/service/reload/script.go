package reload

import (
	"regexp"

	"b24serve/src/internal/domain"
)

// Script is the client snippet injected into served HTML pages.
const Script = `<script>(function(){` +
	`var p=location.protocol==="https:"?"wss://":"ws://";` +
	`var ws=new WebSocket(p+location.host+"` + domain.LiveReloadPath + `");` +
	`ws.onmessage=function(){location.reload();};` +
	`})();</script>`

var bodyClose = regexp.MustCompile(`(?i)</body>`)

// Inject places Script right before the last closing body tag, or at the
// end of the document when there is none.
func Inject(html []byte) []byte {
	out := make([]byte, 0, len(html)+len(Script))
	locs := bodyClose.FindAllIndex(html, -1)
	if len(locs) == 0 {
		out = append(out, html...)
		return append(out, Script...)
	}
	idx := locs[len(locs)-1][0]
	out = append(out, html[:idx]...)
	out = append(out, Script...)
	return append(out, html[idx:]...)
}

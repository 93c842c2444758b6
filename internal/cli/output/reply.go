package output

import (
	"encoding/json"
	"io"

	"github.com/leapstack-labs/leapask/internal/chat"
	"github.com/leapstack-labs/leapask/internal/router"
)

// Reply writes a chat reply in the effective mode.
func (r *Renderer) Reply(reply *chat.Reply) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		return r.JSON(reply)
	case ModeMarkdown:
		return r.replyMarkdown(reply)
	default:
		return r.replyText(reply)
	}
}

func (r *Renderer) replyText(reply *chat.Reply) error {
	s := r.styles
	if reply.Decision != nil {
		switch reply.Decision.Kind {
		case router.KindQuery:
			r.Println(s.Muted.Render("sql: ") + s.Code.Render(reply.Decision.Query))
		case router.KindFunction:
			r.Println(s.Muted.Render("function: ") + s.Code.Render(reply.Decision.String()))
		}
	}

	switch reply.Kind {
	case chat.ReplyAnswer:
		r.Println(reply.Text)
		return r.resultTable(reply.Result)
	case chat.ReplyClarification:
		r.Println(s.Clarify.Render(reply.Text))
	default:
		r.Println(s.Error.Render(reply.Text))
		if reply.Detail != "" {
			r.Println(s.Muted.Render(reply.Detail))
		}
	}
	return nil
}

func (r *Renderer) replyMarkdown(reply *chat.Reply) error {
	if reply.Decision != nil && reply.Decision.Kind == router.KindQuery {
		r.Println(FormatCodeBlock("sql", reply.Decision.Query))
		r.Println("")
	} else if reply.Decision != nil {
		r.Println("Function: `" + reply.Decision.String() + "`")
		r.Println("")
	}

	switch reply.Kind {
	case chat.ReplyAnswer:
		r.Println(reply.Text)
		return r.resultTable(reply.Result)
	case chat.ReplyClarification:
		r.Println("> " + reply.Text)
	default:
		r.Println("**" + reply.Text + "**")
		if reply.Detail != "" {
			r.Println("")
			r.Println(FormatCodeBlock("", reply.Detail))
		}
	}
	return nil
}

// Result writes a query or function result on its own, outside a reply.
func (r *Renderer) Result(p chat.Payload) error {
	if r.EffectiveMode() == ModeJSON {
		return r.JSON(p)
	}
	r.Println(p.Text())
	return r.resultTable(p)
}

// resultTable writes the result as a table unless it is a single value
// already covered by the reply text.
func (r *Renderer) resultTable(p chat.Payload) error {
	if p == nil {
		return nil
	}
	cols, rows := p.Table()
	if len(rows) == 0 || (len(rows) == 1 && len(cols) <= 2) {
		return nil
	}
	r.Println("")
	return r.Table(cols, rows)
}

func newJSONEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc
}

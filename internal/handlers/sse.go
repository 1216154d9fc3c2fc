package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/templ"
	datastar "github.com/starfederation/datastar-go/datastar"

	"quizparty/internal/events"
	"quizparty/internal/game"
)

// StreamSession streams a session to spectators, such as the shared screen
// in the room. State travels as datastar signals, the scoreboard as an
// element patch.
func (h *Handler) StreamSession(w http.ResponseWriter, r *http.Request) {
	code := sessionCode(r)

	st, err := h.engine.Snapshot(code)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	// Subscribe before the first send so no update is lost in between
	ch := h.bus.Subscribe(code)
	defer h.bus.Unsubscribe(code, ch)

	sse := datastar.NewSSE(w, r)
	log := h.log.With().Str("code", code).Logger()
	log.Debug().Msg("SSE stream opened")

	if png, err := generateQRCode(h.joinURL(r, code)); err != nil {
		log.Warn().Err(err).Msg("failed to generate QR code")
	} else {
		qrDataURI := fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(png))
		if err := sse.MarshalAndPatchSignals(map[string]any{"qrCode": qrDataURI}); err != nil {
			return
		}
	}

	if err := h.sendState(sse, st); err != nil {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Msg("SSE stream closed")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := h.forward(sse, event); err != nil {
				log.Debug().Err(err).Msg("SSE send failed")
				return
			}
			if event.Type == events.TypeSessionClosed {
				return
			}
		}
	}
}

func (h *Handler) forward(sse *datastar.ServerSentEventGenerator, event events.Event) error {
	switch event.Type {
	case events.TypeGameState:
		st, ok := event.Payload.(game.PublicState)
		if !ok {
			return nil
		}
		return h.sendState(sse, st)
	case events.TypeCategorySelected:
		return sse.MarshalAndPatchSignals(map[string]any{"category": event.Payload})
	case events.TypeQuestionTimeout:
		return sse.MarshalAndPatchSignals(map[string]any{"reveal": event.Payload})
	case events.TypeSessionClosed:
		return sse.MarshalAndPatchSignals(map[string]any{"closed": true})
	}
	return nil
}

func (h *Handler) sendState(sse *datastar.ServerSentEventGenerator, st game.PublicState) error {
	if err := sse.MarshalAndPatchSignals(map[string]any{"state": st}); err != nil {
		return err
	}
	return sse.PatchElements(renderToString(scoreboard(st.Players)), datastar.WithSelector("#scoreboard"))
}

// renderToString renders a templ component to string
func renderToString(component templ.Component) string {
	buf := &bytes.Buffer{}
	component.Render(context.Background(), buf)
	return buf.String()
}

// scoreboard renders players, already ordered by score, as a list
func scoreboard(players []game.Player) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<ol id="scoreboard">`); err != nil {
			return err
		}
		for _, p := range players {
			class := "player"
			if !p.Connected {
				class += " disconnected"
			}
			_, err := fmt.Fprintf(w, `<li class="%s" data-player-id="%s"><span class="name">%s</span> <span class="score">%d</span></li>`,
				templ.EscapeString(class), templ.EscapeString(p.ID), templ.EscapeString(p.Name), p.Score)
			if err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ol>`)
		return err
	})
}

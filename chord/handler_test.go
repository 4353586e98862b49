package chord

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.miragespace.co/copper/spec/protocol"

	"github.com/stretchr/testify/require"
)

func fetch(t *testing.T, h http.Handler, path string) (int, string) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestChordStatsHandler(t *testing.T) {
	as := require.New(t)

	m := newMesh(t)
	nodes := m.buildRing(16, 1, 9)
	m.inject(nodes[0].Identity, protocol.Put{Address: nodes[0].Identity, Key: 5, Value: 2.5, ID: 1})
	m.drain()

	h := ChordStatsHandler(nodes[1])

	code, body := fetch(t, h, "/stats")
	as.Equal(http.StatusOK, code)
	as.Contains(body, "Predecessor")
	as.Contains(body, "Current state: Running")
	as.Contains(body, "With 1 keys")

	code, body = fetch(t, h, "/stats?key=5")
	as.Equal(http.StatusOK, code)
	as.Equal("2.5", body)

	code, _ = fetch(t, h, "/stats?key=6")
	as.Equal(http.StatusNotFound, code)

	code, _ = fetch(t, h, "/stats?key=nope")
	as.Equal(http.StatusBadRequest, code)

	code, body = fetch(t, h, "/graph")
	as.Equal(http.StatusOK, code)
	as.Contains(body, "digraph")
	as.Contains(body, nodes[0].Identity.String())

	code, body = fetch(t, h, "/metrics")
	as.Equal(http.StatusOK, code)
	as.Contains(body, "copper_messages_handled_total")
}

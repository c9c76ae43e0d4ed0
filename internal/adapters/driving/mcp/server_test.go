package mcp

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connectClient opens a client session against server over in-memory
// transports.
func connectClient(t *testing.T, server *Server, transport mcp.Transport) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	if transport == nil {
		clientSide, serverSide := mcp.NewInMemoryTransports()
		serverSession, err := server.Connect(ctx, serverSide)
		require.NoError(t, err)
		t.Cleanup(func() { _ = serverSession.Close() })
		transport = clientSide
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, transport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

// decodeStructured converts structured tool output into out.
func decodeStructured(t *testing.T, result *mcp.CallToolResult, out any) {
	t.Helper()
	raw, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestNewServer(t *testing.T) {
	_, err := NewServer(&Ports{})
	assert.ErrorIs(t, err, ErrMissingReviewService)

	_, err = NewServer(nil)
	assert.ErrorIs(t, err, ErrMissingReviewService)

	server, err := NewServer(&Ports{Review: &mockReviewService{}})
	require.NoError(t, err)
	assert.NotNil(t, server.Handler())
}

func TestServer_Session(t *testing.T) {
	server, review := newTestServer(t)
	id := addText(t, review, "Yo tiene un gato")
	session := connectClient(t, server, nil)
	ctx := context.Background()

	t.Run("instructions", func(t *testing.T) {
		init := session.InitializeResult()
		require.NotNil(t, init)
		assert.Contains(t, init.Instructions, "half-open")
		assert.Equal(t, "marginalia", init.ServerInfo.Name)
	})

	t.Run("tools", func(t *testing.T) {
		tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
		require.NoError(t, err)

		var names []string
		for _, tool := range tools.Tools {
			names = append(names, tool.Name)
		}
		assert.ElementsMatch(t, []string{
			"list_annotations", "add_annotation", "update_annotation",
			"delete_annotation", "render_text", "list_marks", "add_stamp",
		}, names)
	})

	t.Run("annotate and render", func(t *testing.T) {
		added, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name: "add_annotation",
			Arguments: map[string]any{
				"subject_id":  id,
				"phrase":      "tiene",
				"kind":        "grammar",
				"replacement": "tengo",
			},
		})
		require.NoError(t, err)
		require.False(t, added.IsError)

		var result AnnotationResult
		decodeStructured(t, added, &result)
		assert.Equal(t, 3, result.Annotation.Start)
		assert.Equal(t, 8, result.Annotation.End)

		rendered, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "render_text",
			Arguments: map[string]any{"subject_id": id},
		})
		require.NoError(t, err)

		var out RenderTextOutput
		decodeStructured(t, rendered, &out)
		assert.Equal(t, "Yo [tiene → tengo|grammar] un gato", out.Text)
	})

	t.Run("tool errors are reported to the client", func(t *testing.T) {
		result, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "list_annotations",
			Arguments: map[string]any{"subject_id": "missing"},
		})
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})

	t.Run("subjects resource", func(t *testing.T) {
		res, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: uriScheme + "subjects"})
		require.NoError(t, err)
		require.Len(t, res.Contents, 1)
		assert.Contains(t, res.Contents[0].Text, id)
	})
}

func TestServer_Handler(t *testing.T) {
	server, review := newTestServer(t)
	id := addText(t, review, "una casa")

	httpServer := httptest.NewServer(server.Handler())
	t.Cleanup(httpServer.Close)

	session := connectClient(t, server, &mcp.StreamableClientTransport{Endpoint: httpServer.URL})

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "list_annotations",
		Arguments: map[string]any{"subject_id": id},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out ListAnnotationsOutput
	decodeStructured(t, result, &out)
	assert.Equal(t, id, out.SubjectID)
	assert.Zero(t, out.Count)
}

func TestPorts_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingReviewService)
	assert.NoError(t, (&Ports{Review: &mockReviewService{}}).Validate())
}

package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/pipeline"
)

const contractText = `CONSULTING AGREEMENT

This Agreement is made between Northwind Traders Inc. ("Client") and Riley Park ("Consultant").

1. Services. Consultant shall provide advisory services.
2. Fees. Client shall pay $200 per hour, payable Net 45.
3. Non-Compete. Consultant agrees to a non-compete for 24 months.
4. Severability. Invalid provisions do not affect the rest.
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.HTTP.RespectRobots = false
	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return NewServer(p, nil, "test", nil)
}

func connectInMemory(t *testing.T, ctx context.Context, srv *Server) *sdkmcp.ClientSession {
	t.Helper()
	t1, t2 := sdkmcp.NewInMemoryTransports()
	serverSession, err := srv.MCPServer.Connect(ctx, t1, nil)
	if err != nil {
		t.Fatalf("server.Connect: %v", err)
	}
	t.Cleanup(func() { serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func callTool(t *testing.T, ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any) map[string]any {
	t.Helper()
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if res.IsError {
		t.Fatalf("CallTool(%s) returned error: %s", name, errorText(res))
	}
	result := make(map[string]any)
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			if err := json.Unmarshal([]byte(tc.Text), &result); err != nil {
				t.Fatalf("unmarshal tool result: %v (text: %s)", err, tc.Text)
			}
			return result
		}
	}
	t.Fatalf("no text content in tool result")
	return nil
}

func callToolError(t *testing.T, ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return err.Error()
	}
	if !res.IsError {
		t.Fatalf("CallTool(%s) expected an error result", name)
	}
	return errorText(res)
}

func errorText(res *sdkmcp.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestListTools(t *testing.T) {
	ctx := testContext(t)
	session := connectInMemory(t, ctx, newTestServer(t))

	res, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"analyze_contract", "compare_contracts", "list_templates", "analyze_template"} {
		if !names[want] {
			t.Errorf("missing tool %s", want)
		}
	}
}

func TestAnalyzeContract_Text(t *testing.T) {
	ctx := testContext(t)
	session := connectInMemory(t, ctx, newTestServer(t))

	out := callTool(t, ctx, session, "analyze_contract", map[string]any{"text": contractText})

	if out["document_type"] != "consulting" {
		t.Errorf("document_type = %v, want consulting", out["document_type"])
	}
	flags, _ := out["flags"].([]any)
	found := false
	for _, f := range flags {
		if f.(map[string]any)["id"] == "non_compete" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected non_compete flag, got %v", flags)
	}
	if _, ok := out["markdown"]; ok {
		t.Error("markdown should be omitted unless requested")
	}
	if !strings.Contains(out["disclaimer"].(string), "Not legal advice") {
		t.Errorf("unexpected disclaimer %v", out["disclaimer"])
	}
}

func TestAnalyzeContract_Path(t *testing.T) {
	ctx := testContext(t)
	session := connectInMemory(t, ctx, newTestServer(t))

	path := filepath.Join(t.TempDir(), "consulting.txt")
	if err := os.WriteFile(path, []byte(contractText), 0o644); err != nil {
		t.Fatal(err)
	}

	out := callTool(t, ctx, session, "analyze_contract", map[string]any{"path": path, "include_markdown": true})

	if out["source"] != path {
		t.Errorf("source = %v, want %s", out["source"], path)
	}
	if md, _ := out["markdown"].(string); !strings.Contains(md, "## Red Flags") {
		t.Errorf("expected markdown report, got %q", md)
	}
}

func TestAnalyzeContract_Errors(t *testing.T) {
	ctx := testContext(t)
	session := connectInMemory(t, ctx, newTestServer(t))

	if msg := callToolError(t, ctx, session, "analyze_contract", map[string]any{}); !strings.Contains(msg, "exactly one") {
		t.Errorf("unexpected error %q", msg)
	}
	if msg := callToolError(t, ctx, session, "analyze_contract", map[string]any{"text": "short"}); !strings.Contains(msg, "too short") {
		t.Errorf("unexpected error %q", msg)
	}
}

func TestAnalyzeContract_URLPrivateHostBlocked(t *testing.T) {
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(contractText))
	}))
	defer upstream.Close()

	ctx := testContext(t)
	session := connectInMemory(t, ctx, newTestServer(t))

	msg := callToolError(t, ctx, session, "analyze_contract", map[string]any{"url": upstream.URL + "/terms"})
	if !strings.Contains(msg, "destination address not allowed") {
		t.Errorf("unexpected error %q", msg)
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("upstream hit %d times, want 0", n)
	}
}

func TestCompareContracts(t *testing.T) {
	ctx := testContext(t)
	session := connectInMemory(t, ctx, newTestServer(t))

	safer := strings.Replace(contractText, "3. Non-Compete. Consultant agrees to a non-compete for 24 months.\n", "", 1)
	out := callTool(t, ctx, session, "compare_contracts", map[string]any{"text_a": contractText, "text_b": safer})

	if out["safer"] != "second" {
		t.Errorf("safer = %v, want second", out["safer"])
	}
	only, _ := out["flags_only_in_first"].([]any)
	if len(only) != 1 || only[0] != "non_compete" {
		t.Errorf("flags_only_in_first = %v", only)
	}

	if msg := callToolError(t, ctx, session, "compare_contracts", map[string]any{"text_a": contractText}); !strings.Contains(msg, "second contract") {
		t.Errorf("unexpected error %q", msg)
	}
}

func TestTemplates(t *testing.T) {
	ctx := testContext(t)
	session := connectInMemory(t, ctx, newTestServer(t))

	out := callTool(t, ctx, session, "list_templates", map[string]any{"category": "Confidentiality"})
	list, _ := out["templates"].([]any)
	if len(list) != 2 {
		t.Fatalf("expected 2 confidentiality templates, got %d", len(list))
	}

	analyzed := callTool(t, ctx, session, "analyze_template", map[string]any{"id": "nda-mutual"})
	if analyzed["document_type"] != "nda" {
		t.Errorf("document_type = %v, want nda", analyzed["document_type"])
	}
	if analyzed["source"] != "template:nda-mutual" {
		t.Errorf("source = %v", analyzed["source"])
	}

	if msg := callToolError(t, ctx, session, "analyze_template", map[string]any{"id": "missing"}); !strings.Contains(msg, "template not found") {
		t.Errorf("unexpected error %q", msg)
	}
}

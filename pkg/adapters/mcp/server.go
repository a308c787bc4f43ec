package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/flowpath/internal/presentation/graph"
	"github.com/aretw0/flowpath/pkg/flow"
	core "github.com/aretw0/flowpath/pkg/graph"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GraphURI is the resource holding the Mermaid rendering of the network.
const GraphURI = "flowpath://graph"

// VolumeResult is the structured answer of volume_to.
type VolumeResult struct {
	From   string  `json:"from" jsonschema_description:"Segment the path starts at"`
	To     string  `json:"to" jsonschema_description:"Segment the path ends at"`
	Found  bool    `json:"found" jsonschema_description:"Whether the target is reachable under the current states"`
	Volume float64 `json:"volume" jsonschema_description:"Volume between the two segments, start included and target excluded"`
}

// Server exposes a flow network as an MCP Server.
type Server struct {
	network   *flow.Network
	logger    *slog.Logger
	mcpServer *server.MCPServer

	// mu serializes state changes with the queries that depend on them.
	mu sync.Mutex
}

// NewServer creates a new MCP Server instance.
func NewServer(net *flow.Network, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = net.Logger()
	}
	s := &Server{
		network:   net,
		logger:    logger,
		mcpServer: server.NewMCPServer("flowpath-mcp", version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("set_state",
		mcp.WithDescription("Set the active state of a state group (for example a valve position) for the whole network."),
		mcp.WithString("group", mcp.Required(), mcp.Description("State group id, e.g. selector_1")),
		mcp.WithString("state", mcp.Required(), mcp.Description("State name, e.g. refill_2")),
	), s.handleSetState)

	s.mcpServer.AddTool(mcp.NewTool("volume_to",
		mcp.WithDescription("Volume between two segments along the single path connecting them under the current states."),
		mcp.WithString("from", mcp.Required(), mcp.Description("Start segment")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Target segment")),
		mcp.WithString("direction", mcp.Description("down (default), up or both")),
		mcp.WithOutputSchema[VolumeResult](),
	), mcp.NewStructuredToolHandler(s.handleVolumeTo))

	s.mcpServer.AddTool(mcp.NewTool("time_from",
		mcp.WithDescription("Time in minutes for fluid from the slowest source to reach a segment."),
		mcp.WithString("at", mcp.Required(), mcp.Description("Target segment")),
		mcp.WithString("rates", mcp.Required(), mcp.Description(`JSON object of source flow rates, e.g. {"Syringe_1": 55}`)),
	), s.handleTimeFrom)

	s.mcpServer.AddTool(mcp.NewTool("check_flow_stability",
		mcp.WithDescription("Find junctions whose inlet flow-rate ratio exceeds the critical ratio."),
		mcp.WithString("at", mcp.Required(), mcp.Description("Target segment")),
		mcp.WithString("rates", mcp.Required(), mcp.Description("JSON object of source flow rates")),
		mcp.WithNumber("critical_ratio", mcp.Description("Critical inlet ratio (default 10)")),
	), s.handleStability)

	s.mcpServer.AddTool(mcp.NewTool("describe_segment",
		mcp.WithDescription("Describe a segment: volume and its connections per state."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Segment name")),
	), s.handleDescribe)
}

func (s *Server) handleSetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	group, err := request.RequireString("group")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	state, err := request.RequireString("state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.network.SetState(group, state)
	jsonBytes, _ := json.Marshal(s.network.States().Snapshot())
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleVolumeTo(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (VolumeResult, error) {
	from, _ := args["from"].(string)
	to, _ := args["to"].(string)
	direction, _ := args["direction"].(string)
	if from == "" || to == "" {
		return VolumeResult{}, fmt.Errorf("from and to are required")
	}
	dir, err := core.ParseDirection(direction)
	if err != nil {
		return VolumeResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	v, found, err := s.network.VolumeTo(from, to, dir)
	if err != nil {
		return VolumeResult{}, fmt.Errorf("volume_to failed: %w", err)
	}
	return VolumeResult{From: from, To: to, Found: found, Volume: v}, nil
}

func (s *Server) handleTimeFrom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	at, rates, err := flowArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d, found, err := s.network.TimeFrom(at, rates)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("time_from failed: %v", err)), nil
	}
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("%v: %q", flow.ErrSegmentNotFound, at)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%.4f min (%.1f s)", float64(d), d.Seconds())), nil
}

func (s *Server) handleStability(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	at, rates, err := flowArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	critical := request.GetFloat("critical_ratio", flow.DefaultCriticalRatio)

	s.mu.Lock()
	defer s.mu.Unlock()
	report, found, err := s.network.CheckFlowStabilityFrom(at, critical, rates)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("check_flow_stability failed: %v", err)), nil
	}
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("%v: %q", flow.ErrSegmentNotFound, at)), nil
	}
	jsonBytes, _ := json.Marshal(report)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleDescribe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	seg, ok := s.network.Lookup(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("%v: %q", flow.ErrSegmentNotFound, name)), nil
	}
	return mcp.NewToolResultText(seg.Summary(false) + "\n" + seg.Describe()), nil
}

func flowArgs(request mcp.CallToolRequest) (string, map[string]float64, error) {
	at, err := request.RequireString("at")
	if err != nil {
		return "", nil, err
	}
	raw, err := request.RequireString("rates")
	if err != nil {
		return "", nil, err
	}
	var rates map[string]float64
	if err := json.Unmarshal([]byte(raw), &rates); err != nil {
		return "", nil, errors.New("rates must be a JSON object of numbers")
	}
	return at, rates, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Flow network (Mermaid)",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(s.network, nil),
			},
		}, nil
	})
}

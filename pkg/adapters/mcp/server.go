package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/loanflow/internal/logging"
	"github.com/aretw0/loanflow/pkg/abn"
	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/ports"
	"github.com/aretw0/loanflow/pkg/quote"
	"github.com/aretw0/loanflow/pkg/runner"
	"github.com/aretw0/loanflow/pkg/validate"
)

// Resource URIs.
const (
	StepsURI = "loanflow://steps"
	RatesURI = "loanflow://rates"
)

// Inspector lists the step ids of the conversation graph.
type Inspector interface {
	Inspect() []string
}

// QuoteArgs are the calculate_quote arguments.
type QuoteArgs struct {
	AssetType         string  `json:"asset_type"`
	Condition         string  `json:"condition"`
	LoanAmount        float64 `json:"loan_amount"`
	TermMonths        int     `json:"term_months"`
	BalloonPercentage float64 `json:"balloon_percentage"`
}

// ABNArgs are the validate_abn arguments.
type ABNArgs struct {
	ABN string `json:"abn"`
}

// ABNResult reports checksum validity and, when a registry is configured, the registration.
type ABNResult struct {
	ABN        string                `json:"abn" jsonschema_description:"Digits only"`
	Valid      bool                  `json:"valid" jsonschema_description:"Whether the modulus 89 checksum holds"`
	Formatted  string                `json:"formatted,omitempty"`
	Registered *bool                 `json:"registered,omitempty"`
	Entry      *domain.RegistryEntry `json:"entry,omitempty"`
}

// AmountArgs are the parse_amount arguments.
type AmountArgs struct {
	Text string `json:"text"`
}

// AmountResult is the parsed amount.
type AmountResult struct {
	Amount float64 `json:"amount"`
}

// ChatArgs address a conversation; Answer is ignored by chat_start.
type ChatArgs struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

// TurnResult is the structured output of the chat tools.
type TurnResult struct {
	Turn *domain.Turn `json:"turn" jsonschema_description:"Assistant messages and the input the conversation now waits for"`
}

// Server exposes quoting, ABN checks and the conversation as MCP tools.
type Server struct {
	conv       ports.Conversation
	calculator *quote.Calculator
	registry   ports.Registry
	logger     *slog.Logger
	version    string
	tools      []string
	mcpServer  *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithCalculator prices calculate_quote. Defaults to quote.New().
func WithCalculator(c *quote.Calculator) Option {
	return func(s *Server) { s.calculator = c }
}

// WithRegistry makes validate_abn report registrations.
func WithRegistry(r ports.Registry) Option {
	return func(s *Server) { s.registry = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithVersion sets the version advertised to clients.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer creates a new MCP Server instance.
func NewServer(conv ports.Conversation, opts ...Option) *Server {
	s := &Server{conv: conv, logger: logging.NewNop(), version: "dev"}
	for _, opt := range opts {
		opt(s)
	}
	if s.calculator == nil {
		s.calculator = quote.New()
	}
	s.mcpServer = server.NewMCPServer("loanflow-mcp", s.version)
	s.registerTools()
	s.registerResources()
	return s
}

// Tools returns the registered tool names in registration order.
func (s *Server) Tools() []string {
	return s.tools
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
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
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mcpServer.AddTool(tool, handler)
	s.tools = append(s.tools, tool.Name)
}

func (s *Server) registerTools() {
	s.addTool(mcp.NewTool("calculate_quote",
		mcp.WithDescription("Price an asset finance loan: repayments, fees and the saving against a typical broker."),
		mcp.WithString("asset_type", mcp.Required(), mcp.Description("vehicle, truck, construction, agriculture, equipment or technology")),
		mcp.WithString("condition", mcp.Required(), mcp.Description("new, demo, used_0_3, used_4_7 or used_8_plus")),
		mcp.WithNumber("loan_amount", mcp.Required(), mcp.Description("Amount financed in dollars, 5000 to 500000")),
		mcp.WithNumber("term_months", mcp.Required(), mcp.Description("Term in months, 12 to 84")),
		mcp.WithNumber("balloon_percentage", mcp.Description("Residual as a percentage of the loan, 0 to 50")),
		mcp.WithOutputSchema[quote.Result](),
	), mcp.NewStructuredToolHandler(s.handleQuote))

	s.addTool(mcp.NewTool("validate_abn",
		mcp.WithDescription("Check an Australian Business Number and look up its registration."),
		mcp.WithString("abn", mcp.Required(), mcp.Description("11 digits, spaces allowed")),
		mcp.WithOutputSchema[ABNResult](),
	), mcp.NewStructuredToolHandler(s.handleABN))

	s.addTool(mcp.NewTool("parse_amount",
		mcp.WithDescription(`Read a dollar amount the way people type it, e.g. "$45,000" or "75k".`),
		mcp.WithString("text", mcp.Required(), mcp.Description("Free-form amount")),
		mcp.WithOutputSchema[AmountResult](),
	), mcp.NewStructuredToolHandler(s.handleAmount))

	s.addTool(mcp.NewTool("chat_start",
		mcp.WithDescription("Start or resume the loan application conversation for a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Caller-chosen session id")),
		mcp.WithOutputSchema[TurnResult](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.addTool(mcp.NewTool("chat_answer",
		mcp.WithDescription("Answer the question the conversation is waiting on."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id given to chat_start")),
		mcp.WithString("answer", mcp.Required(), mcp.Description("The applicant's reply, or an option label")),
		mcp.WithOutputSchema[TurnResult](),
	), mcp.NewStructuredToolHandler(s.handleAnswer))

	s.addTool(mcp.NewTool("chat_reset",
		mcp.WithDescription("Discard progress and start the conversation over."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithOutputSchema[TurnResult](),
	), mcp.NewStructuredToolHandler(s.handleReset))
}

func (s *Server) handleQuote(_ context.Context, _ mcp.CallToolRequest, args QuoteArgs) (*quote.Result, error) {
	return s.calculator.Calculate(quote.Request{
		AssetType:         quote.AssetType(args.AssetType),
		Condition:         quote.Condition(args.Condition),
		LoanAmount:        args.LoanAmount,
		TermMonths:        args.TermMonths,
		BalloonPercentage: args.BalloonPercentage,
	})
}

func (s *Server) handleABN(ctx context.Context, _ mcp.CallToolRequest, args ABNArgs) (ABNResult, error) {
	res := ABNResult{ABN: abn.Normalize(args.ABN), Valid: abn.IsValid(args.ABN)}
	if !res.Valid {
		return res, nil
	}
	res.Formatted = abn.Format(args.ABN)
	if s.registry == nil {
		return res, nil
	}

	entry, err := s.registry.Lookup(ctx, res.ABN)
	registered := err == nil
	switch {
	case errors.Is(err, ports.ErrNotFound):
	case err != nil:
		s.logger.Warn("MCP validate_abn: registry lookup failed", "abn", res.ABN, "error", err)
		return res, fmt.Errorf("registry lookup: %w", err)
	default:
		res.Entry = entry
	}
	res.Registered = &registered
	return res, nil
}

func (s *Server) handleAmount(_ context.Context, _ mcp.CallToolRequest, args AmountArgs) (AmountResult, error) {
	v, err := validate.ParseAmount(args.Text)
	if err != nil {
		return AmountResult{}, err
	}
	return AmountResult{Amount: v}, nil
}

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest, args ChatArgs) (TurnResult, error) {
	turn, err := s.conv.Start(ctx, args.SessionID)
	return TurnResult{Turn: turn}, err
}

func (s *Server) handleAnswer(ctx context.Context, _ mcp.CallToolRequest, args ChatArgs) (TurnResult, error) {
	clean, err := runner.SanitizeInput(args.Answer)
	if err != nil {
		s.logger.Warn("MCP chat_answer: input rejected", "error", err, "size", len(args.Answer))
		return TurnResult{}, fmt.Errorf("input rejected: %w", err)
	}
	turn, err := s.conv.Answer(ctx, args.SessionID, clean)
	return TurnResult{Turn: turn}, err
}

func (s *Server) handleReset(ctx context.Context, _ mcp.CallToolRequest, args ChatArgs) (TurnResult, error) {
	turn, err := s.conv.Reset(ctx, args.SessionID)
	return TurnResult{Turn: turn}, err
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(RatesURI, "Base rate table",
		mcp.WithMIMEType("application/json"),
	), func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource(RatesURI, s.calculator.Rates())
	})

	inspector, ok := s.conv.(Inspector)
	if !ok {
		return
	}
	s.mcpServer.AddResource(mcp.NewResource(StepsURI, "Conversation step ids",
		mcp.WithMIMEType("application/json"),
	), func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource(StepsURI, inspector.Inspect())
	})
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: uri, MIMEType: "application/json", Text: string(data)},
	}, nil
}

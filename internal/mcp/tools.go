package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer builds the stdio MCP server with every analytics tool
// registered.
func NewServer(svc *Service) *server.MCPServer {
	s := server.NewMCPServer(
		"bilancio",
		"1.0.0",
		server.WithToolCapabilities(false),
	)
	RegisterTools(s, svc)
	return s
}

// RegisterTools adds all analytics tools to the server.
func RegisterTools(s *server.MCPServer, svc *Service) {
	registerAnalyticsSummary(s, svc)
	registerAnalyticsComparison(s, svc)
	registerSpendingTrends(s, svc)
	registerCategoryComparison(s, svc)
	registerHealthScore(s, svc)
	registerListTransactions(s, svc)
}

func registerAnalyticsSummary(s *server.MCPServer, svc *Service) {
	tool := mcp.NewTool("analytics_summary",
		mcp.WithDescription("Summarize income, expenses, net amount, top expense categories, daily average, and savings rate for the period containing today."),
		mcp.WithString("period",
			mcp.Description("Period to summarize. Defaults to monthly."),
			mcp.Enum("weekly", "monthly", "half-yearly", "yearly"),
		),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		period := mcp.ParseString(request, "period", "")
		result, err := svc.AnalyticsSummary(ctx, period)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(result), nil
	})
}

func registerAnalyticsComparison(s *server.MCPServer, svc *Service) {
	tool := mcp.NewTool("analytics_comparison",
		mcp.WithDescription("Compare the current period against the previous one of the same kind: income, expenses, and net amount with growth percentages."),
		mcp.WithString("period",
			mcp.Description("Period to compare. Defaults to monthly."),
			mcp.Enum("weekly", "monthly", "half-yearly", "yearly"),
		),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		period := mcp.ParseString(request, "period", "")
		result, err := svc.AnalyticsComparison(ctx, period)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(result), nil
	})
}

func registerSpendingTrends(s *server.MCPServer, svc *Service) {
	tool := mcp.NewTool("spending_trends",
		mcp.WithDescription("Show income, expenses, and savings for the six trailing calendar months, oldest first. Months without activity appear as zero."),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := svc.SpendingTrends(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(result), nil
	})
}

func registerCategoryComparison(s *server.MCPServer, svc *Service) {
	tool := mcp.NewTool("category_comparison",
		mcp.WithDescription("Compare expense totals per category between the current calendar month and the previous one, sorted by current spending."),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := svc.CategoryComparison(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(result), nil
	})
}

func registerHealthScore(s *server.MCPServer, svc *Service) {
	tool := mcp.NewTool("health_score",
		mcp.WithDescription("Grade financial health on a 0-100 scale from savings rate, spending consistency, income growth, and expense balance."),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := svc.HealthScore(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(result), nil
	})
}

func registerListTransactions(s *server.MCPServer, svc *Service) {
	tool := mcp.NewTool("list_transactions",
		mcp.WithDescription("List transactions, newest first. With year or month set, lists that calendar month (the missing half defaults to today's); with neither, lists everything."),
		mcp.WithNumber("year",
			mcp.Description("Calendar year, e.g. 2025. Defaults to the current year when month is set."),
		),
		mcp.WithNumber("month",
			mcp.Description("Calendar month 1-12. Defaults to the current month when year is set."),
		),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		year := mcp.ParseInt(request, "year", 0)
		month := mcp.ParseInt(request, "month", 0)
		result, err := svc.ListTransactions(ctx, year, month)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(result), nil
	})
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deskai/deskai/internal/api"
	apperrors "github.com/deskai/deskai/internal/errors"
	"github.com/deskai/deskai/internal/history"
	"github.com/deskai/deskai/internal/stats"
	"github.com/deskai/deskai/pkg/protocol"
)

func serveCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long:  "Start the JSON HTTP API used by the desktop front-end",
		RunE: func(cmd *cobra.Command, args []string) error {
			if host != "" {
				cfg.Server.Host = host
			}
			if port > 0 {
				cfg.Server.Port = port
			}

			a, err := newApp(cfg, true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := api.NewServer(api.Deps{
				Router:  a.router,
				Tools:   a.tools,
				Catalog: a.catalog,
				Backend: a.backend,
				History: a.history,
				Stats:   a.stats,
			}, api.Options{
				MaxConnections: cfg.Server.MaxConnections,
				RequestTimeout: cfg.Server.RequestTimeout.Duration,
			}, logger)

			return srv.ListenAndServe(ctx, cfg.Addr())
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host to listen on (default: 127.0.0.1)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default: 8765)")
	return cmd
}

func askCmd() *cobra.Command {
	var (
		modelHint string
		params    []string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "ask [text...]",
		Short: "Route a single query",
		Long:  "Route a query to a local model or tool and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseParams(params)
			if err != nil {
				return err
			}

			a, err := newApp(cfg, true)
			if err != nil {
				return err
			}
			defer a.Close()

			q := protocol.Query{Text: strings.Join(args, " "), ModelHint: modelHint, Parameters: p}

			start := time.Now()
			env, routeErr := a.router.Route(cmd.Context(), q)
			if routeErr != nil {
				env = a.router.ErrorEnvelope(routeErr)
			}

			in := history.Interaction{
				Query:         q.Text,
				ModelHint:     q.ModelHint,
				Route:         env.Route,
				ToolsUsed:     env.ToolsUsed,
				Deterministic: env.Deterministic,
				Result:        env.Result,
				DurationMs:    time.Since(start).Milliseconds(),
			}
			if routeErr != nil {
				in.Error = apperrors.GetCode(routeErr)
			}
			if _, err := a.history.Record(cmd.Context(), in); err != nil {
				logger.Warn().Err(err).Msg("failed to record interaction")
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), env)
			}
			printEnvelope(cmd.OutOrStdout(), env)
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelHint, "model", "m", "", "Model id or tool name (tool:<name>) to route to")
	cmd.Flags().StringArrayVarP(&params, "param", "P", nil, "Tool parameter as key=value (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the response envelope as JSON")
	return cmd
}

func toolCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tool <name> [key=value...]",
		Short: "Run a tool directly",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseParams(args[1:])
			if err != nil {
				return err
			}

			a, err := newApp(cfg, false)
			if err != nil {
				return err
			}

			res, err := a.tools.Execute(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Output)
			fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render(fmt.Sprintf("%s · %dms", res.Tool, res.DurationMs)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the tool result as JSON")
	return cmd
}

func modelsCmd() *cobra.Command {
	var available bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models",
		Long:  "List the model catalog, or the models the inference service reports with --available",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfg, false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if !available {
				printModels(out, a.catalog.List())
				return nil
			}

			list := a.backend.ListModels(cmd.Context())
			fmt.Fprintln(out, titleStyle.Render("Available models")+" "+dimStyle.Render("("+string(list.Source)+")"))
			for _, m := range list.Models {
				fmt.Fprintln(out, "  "+m)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&available, "available", false, "Ask the inference service")
	return cmd
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfg, false)
			if err != nil {
				return err
			}
			printTools(cmd.OutOrStdout(), a.tools.List())
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the inference service",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfg, false)
			if err != nil {
				return err
			}
			st := a.backend.CheckStatus(cmd.Context())
			if st.Running {
				fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("● ")+st.Message)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), warnStyle.Render("● ")+st.Message)
			}
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent interactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return err
			}
			defer h.Close()

			items, err := h.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, dimStyle.Render("No interactions recorded yet."))
				return nil
			}
			for _, in := range items {
				line := fmt.Sprintf("%s  %s", dimStyle.Render(in.CreatedAt.Format("2006-01-02 15:04:05")), nameStyle.Render(in.Route))
				if in.Error != "" {
					line += " " + errorStyle.Render(in.Error)
				}
				fmt.Fprintln(out, line)
				fmt.Fprintln(out, resultStyle.Render(truncate(in.Query, 100)))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of interactions to show")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show statistics of the running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Inference.StatusTimeout.Duration)
			defer cancel()

			s, err := fetchStats(ctx, "http://"+cfg.Addr()+"/api/v1/stats")
			if err != nil {
				return fmt.Errorf("server is not reachable at %s, start it with `deskai serve`: %w", cfg.Addr(), err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("Server statistics"))
			fmt.Fprintf(out, "  uptime         %s\n", s.Uptime)
			fmt.Fprintf(out, "  requests       %d (%d errors)\n", s.RequestCount, s.ErrorCount)
			fmt.Fprintf(out, "  tool requests  %d\n", s.ToolRequests)
			fmt.Fprintf(out, "  deterministic  %d\n", s.DeterministicCount)
			fmt.Fprintf(out, "  avg latency    %.1fms\n", s.AvgLatencyMs)
			fmt.Fprintf(out, "  memory         %.1f MB heap, %d goroutines\n", s.MemoryStats.HeapAllocMB, s.Goroutines)
			if s.DBPath != "" {
				fmt.Fprintf(out, "  history db     %s (%.2f MB)\n", s.DBPath, s.DBSizeMB)
			}
			for route, n := range s.Routes {
				fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("    %-20s %d", route, n)))
			}
			return nil
		},
	}
}

func fetchStats(ctx context.Context, url string) (*stats.Stats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stats returned status %d", resp.StatusCode)
	}
	var s stats.Stats
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return &s, nil
}

// parseParams turns key=value arguments into tool parameters.
func parseParams(args []string) (map[string]string, error) {
	params := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, apperrors.InvalidInput(fmt.Sprintf("parameter %q must be key=value", arg))
		}
		params[key] = value
	}
	return params, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

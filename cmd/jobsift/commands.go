package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/jobsift"
	"github.com/poiesic/jobsift/ai"
	"github.com/poiesic/jobsift/mcpserver"
	"github.com/poiesic/jobsift/search"
	"github.com/poiesic/jobsift/server"
	"github.com/poiesic/jobsift/storage/csv"
	"github.com/poiesic/jobsift/storage/sqlite"
	"github.com/poiesic/jobsift/warmup"
	"github.com/urfave/cli/v2"
)

func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
}

func openService(c *cli.Context) (*jobsift.Service, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return newService(c.Context, cfg)
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signalContext(c)
	defer stop()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if addr := c.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if c.IsSet("warm") {
		cfg.Warmup.OnStart = c.Bool("warm")
	}

	if !strings.EqualFold(c.String("log-level"), "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	svc, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	if cfg.Warmup.OnStart {
		go func() {
			result, err := svc.Warm(ctx)
			if err != nil {
				slog.Warn("warm-up incomplete", "warmed", result.Warmed, "jobs", result.Jobs, "err", err)
				return
			}
			slog.Info("warm-up complete", "jobs", result.Jobs, "elapsed", result.Elapsed)
		}()
	}

	srv, err := server.New(svc,
		server.WithAdminToken(cfg.Server.AdminToken),
		server.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
	)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

// searchRequest builds the request from the arguments and filter flags.
func searchRequest(c *cli.Context) search.Request {
	req := search.Request{Query: strings.Join(c.Args().Slice(), " ")}

	var (
		f   search.Filters
		set bool
	)
	if v := c.StringSlice("location"); len(v) > 0 {
		f.Locations = v
		set = true
	}
	if v := c.StringSlice("industry"); len(v) > 0 {
		f.Industries = v
		set = true
	}
	if v := c.String("experience"); v != "" {
		f.ExperienceLevel = v
		set = true
	}
	if c.IsSet("remote") {
		remote := c.Bool("remote")
		f.Remote = &remote
		set = true
	}
	if c.IsSet("salary-min") {
		n := c.Int("salary-min")
		f.SalaryMin = &n
		set = true
	}
	if c.IsSet("salary-max") {
		n := c.Int("salary-max")
		f.SalaryMax = &n
		set = true
	}
	if set {
		req.Filters = &f
	}
	return req
}

func searchCommand(c *cli.Context) error {
	req := searchRequest(c)
	if strings.TrimSpace(req.Query) == "" {
		return cli.Exit("a search query is required", 2)
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	out := c.App.Writer
	var resp *search.Response
	if c.Bool("trace") {
		resp, err = svc.SearchWithMonitor(c.Context, req, &search.TraceMonitor{W: c.App.ErrWriter, Top: c.Int("trace-top")})
	} else {
		resp, err = svc.Search(c.Context, req)
	}
	if err != nil {
		return err
	}

	if c.Bool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printResponse(out, resp)
	return nil
}

func printResponse(w io.Writer, resp *search.Response) {
	fmt.Fprintln(w, resp.Explanation)
	if resp.Count == 0 {
		return
	}
	fmt.Fprintf(w, "Confidence: %.3f\n\n", resp.Confidence)
	for _, job := range resp.Jobs {
		remote := ""
		if job.Remote {
			remote = " (remote)"
		}
		fmt.Fprintf(w, "%2d. [%.3f] %s - %s, %s%s\n", job.Rank, job.Score, job.Title, job.Company, job.Location, remote)
	}
	if len(resp.Companies) > 0 {
		fmt.Fprintln(w, "\nCompanies:")
		for _, co := range resp.Companies {
			fmt.Fprintf(w, "  %s (%s, %d employees)\n", co.Name, co.Industry, co.Size)
		}
	}
}

func warmCommand(c *cli.Context) error {
	ctx, stop := signalContext(c)
	defer stop()

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	opts := []warmup.Option{warmup.WithProgress(c.App.ErrWriter)}
	if c.IsSet("batch-size") {
		opts = append(opts, warmup.WithBatchSize(c.Int("batch-size")))
	}
	if c.IsSet("workers") {
		opts = append(opts, warmup.WithWorkers(c.Int("workers")))
	}

	result, err := svc.Warm(ctx, opts...)
	fmt.Fprintf(c.App.Writer, "Warmed %d of %d jobs in %d batches (%d failed) in %s\n",
		result.Warmed, result.Jobs, result.Batches, result.Failed, result.Elapsed.Round(time.Millisecond))
	return err
}

func importCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	from := c.String("from")
	if from == "" {
		from = cfg.Data.Dir
	}
	to := c.String("to")
	if to == "" {
		to = cfg.Data.SQLitePath
	}

	src, err := csv.NewSource(from)
	if err != nil {
		return err
	}
	db, err := sqlite.Open(c.Context, to)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.Import(c.Context, src, c.Duration("lock-wait"))
	if errors.Is(err, sqlite.ErrLocked) {
		return cli.Exit(fmt.Sprintf("%s is being imported by another process", to), 1)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Imported %d jobs, %d companies and %d locations into %s\n",
		stats.Jobs, stats.Companies, stats.Locations, to)
	return nil
}

func mcpCommand(c *cli.Context) error {
	ctx, stop := signalContext(c)
	defer stop()

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	srv, err := mcpserver.New(svc, mcpserver.WithVersion(version))
	if err != nil {
		return err
	}
	return srv.ServeStdio(ctx, os.Stdin, os.Stdout)
}

func setAPIKeyCommand(c *cli.Context) error {
	if c.Bool("delete") {
		if err := ai.DeleteAPIKey(); err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, "API key removed from the keyring")
		return nil
	}

	key := c.Args().First()
	if key == "" {
		fmt.Fprint(c.App.ErrWriter, "API key: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		key = strings.TrimSpace(line)
	}
	if key == "" {
		return cli.Exit("no API key given", 2)
	}
	if err := ai.StoreAPIKey(key); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "API key stored in the keyring")
	return nil
}

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/taylordaughtry/formie/internal/captcha"
	"github.com/taylordaughtry/formie/internal/config"
	"github.com/taylordaughtry/formie/internal/csrf"
	"github.com/taylordaughtry/formie/internal/ctxlog"
	"github.com/taylordaughtry/formie/internal/eventbus"
	"github.com/taylordaughtry/formie/internal/executor"
	"github.com/taylordaughtry/formie/internal/form"
	"github.com/taylordaughtry/formie/internal/formstore"
	"github.com/taylordaughtry/formie/internal/gql"
	"github.com/taylordaughtry/formie/internal/introspection"
	"github.com/taylordaughtry/formie/internal/otel"
	"github.com/taylordaughtry/formie/internal/rendering"
	"github.com/taylordaughtry/formie/internal/scaffold"
	"github.com/taylordaughtry/formie/internal/schema"
	"github.com/taylordaughtry/formie/internal/server"
	"github.com/taylordaughtry/formie/internal/service"
	"github.com/taylordaughtry/formie/internal/tmpl"
	"github.com/taylordaughtry/formie/internal/variables"
)

const rootUsage = `formie: form schema server and tools

USAGE:
  formie <command> [flags]

COMMANDS:
  serve            Run the HTTP GraphQL endpoint and form pages
  compile-sdl      Materialize the form schema and print it as SDL
  render           Render a form's HTML
  new-form         Create a form definition interactively
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -config <file>                      Plugin configuration (default: formie.yaml)
  -forms <dir>                        Form definitions directory (default: from config)
  -graphql.introspection <bool>       Enable GraphQL introspection (default: true)
  -graphql.graphiql <bool>            Serve GraphiQL to browsers (default: true)
  -server.addr <addr>                 HTTP listen address (default: :8080)
  -server.pretty                      Pretty-print JSON responses
  -server.timeout <duration>          Per-request timeout, e.g. 10s (default: 10s)
  -server.max-body <bytes>            Maximum request body size (default: 1048576)
  -server.cors <origin>               Allowed CORS origin. Repeatable
  -server.metadata-header <name>      Forward HTTP header to services. Repeatable; the
                                      CSRF header and Cookie are always forwarded
  -otel.endpoint <addr>               OTLP collector endpoint
  -otel.service <name>                OpenTelemetry service name (default: formie)
  -log.level <level>                  debug, info, warn or error (default: info)
`

const compileSDLUsage = `compile-sdl FLAGS:
  -config <file>    Plugin configuration (default: formie.yaml)
  -forms <dir>      Form definitions directory (default: from config)
  -out <file>       Write SDL to file (default: stdout)
  (Exits non-zero on schema configuration errors)
`

const renderUsage = `render FLAGS:
  -config <file>      Plugin configuration (default: formie.yaml)
  -forms <dir>        Form definitions directory (default: from config)
  -handle <handle>    Form to render (required)
  -options <json>     Render options as JSON
  -populate <json>    Field values as JSON
`

const newFormUsage = `new-form FLAGS:
  -out <file>    Write the YAML definition to file (default: stdout)
`

// newPrompter is replaced in tests.
var newPrompter = scaffold.NewTerminalPrompter

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "formie:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("formie", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs, stderr)
	case "compile-sdl":
		return cmdCompileSDL(cmdArgs, stdout, stderr)
	case "render":
		return cmdRender(cmdArgs, stdout, stderr)
	case "new-form":
		return cmdNewForm(cmdArgs, stdout, stderr)
	case "help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Fprint(stdout, serveUsage)
	case "compile-sdl":
		fmt.Fprint(stdout, compileSDLUsage)
	case "render":
		fmt.Fprint(stdout, renderUsage)
	case "new-form":
		fmt.Fprint(stdout, newFormUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return strings.Join(*s, ",") }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid -log.level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// app holds the services built from the configuration and form files.
type app struct {
	cfg    *config.Config
	forms  []*form.Form
	plugin *service.Plugin
	vars   *variables.Variables
}

func loadApp(ctx context.Context, configPath, formsDir string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if formsDir == "" {
		formsDir = cfg.FormsPath
	}
	forms, err := loadForms(ctx, formsDir)
	if err != nil {
		return nil, err
	}
	store, err := formstore.New(forms, cfg.StatusModels())
	if err != nil {
		return nil, err
	}

	csrfProvider := csrf.New(cfg.CsrfEnabled(), cfg.CsrfParam, cfg.CsrfHeader)
	renderer, err := rendering.New(csrfProvider, rendering.WithTemplatesDir(cfg.TemplatesPath))
	if err != nil {
		return nil, fmt.Errorf("rendering: %w", err)
	}
	engine, err := tmpl.New()
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}

	plugin := &service.Plugin{
		Settings: service.Settings{
			PluginName:        cfg.PluginName,
			AllowAdminChanges: cfg.AdminChangesAllowed(),
			InstalledPlugins:  cfg.InstalledPlugins,
		},
		Rendering:      renderer,
		Fields:         renderer,
		Integrations:   captcha.New(cfg.Captchas, captcha.NewStore()),
		Relations:      store,
		CSRF:           csrfProvider,
		Forms:          store,
		Submissions:    store,
		Statuses:       formstore.Statuses(cfg.StatusModels()),
		FormTemplates:  formstore.Templates(cfg.FormTemplateModels()),
		EmailTemplates: formstore.Templates(cfg.EmailTemplateModels()),
		Evaluator:      tmpl.NewEvaluator(engine),
	}
	if err := plugin.Validate(); err != nil {
		return nil, err
	}
	vars := variables.New(plugin)
	renderer.SetVariables(vars)
	return &app{cfg: cfg, forms: forms, plugin: plugin, vars: vars}, nil
}

func loadForms(ctx context.Context, dir string) ([]*form.Form, error) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		ctxlog.FromContext(ctx).Warn("forms directory does not exist", "dir", dir)
		return nil, nil
	}
	forms, err := formstore.LoadFS(ctx, os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("load forms: %w", err)
	}
	return forms, nil
}

// buildSchema materializes the form schema. Configuration faults such as
// duplicate fields are returned here so commands fail at startup.
func (a *app) buildSchema() (*schema.Schema, executor.Runtime, error) {
	types := gql.NewTypes(gql.NewRegistry(), a.plugin, gql.DefaultGenerators(a.forms))
	sch, rt, err := gql.Build(types)
	if err != nil {
		return nil, nil, fmt.Errorf("build schema: %w", err)
	}
	return sch, rt, nil
}

func cmdServe(args []string, stderr io.Writer) error {
	configPath := "formie.yaml"
	formsDir := ""
	addr := ":8080"
	pretty := false
	timeout := 10 * time.Second
	maxBody := int64(1 << 20)
	enableIntrospection := true
	enableGraphiQL := true
	otelEndpoint := ""
	otelService := "formie"
	logLevel := "info"
	var corsOrigins, metadataHeaders stringListFlag

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&configPath, "config", configPath, "Plugin configuration")
	fs.StringVar(&formsDir, "forms", formsDir, "Form definitions directory")
	fs.BoolVar(&enableIntrospection, "graphql.introspection", enableIntrospection, "Enable GraphQL introspection")
	fs.BoolVar(&enableGraphiQL, "graphql.graphiql", enableGraphiQL, "Serve GraphiQL")
	fs.StringVar(&addr, "server.addr", addr, "HTTP listen address")
	fs.BoolVar(&pretty, "server.pretty", pretty, "Pretty-print JSON responses")
	fs.DurationVar(&timeout, "server.timeout", timeout, "Per-request timeout")
	fs.Int64Var(&maxBody, "server.max-body", maxBody, "Maximum request body size")
	fs.Var(&corsOrigins, "server.cors", "Allowed CORS origin")
	fs.Var(&metadataHeaders, "server.metadata-header", "Forward HTTP header to services")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	fs.StringVar(&logLevel, "log.level", logLevel, "Log level")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, serveUsage)
		return err
	}
	logger, err := newLogger(stderr, logLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	a, err := loadApp(ctx, configPath, formsDir)
	if err != nil {
		return err
	}
	sch, runtime, err := a.buildSchema()
	if err != nil {
		return err
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	// Only wrap with introspection if enabled
	if enableIntrospection {
		wrapper := introspection.Wrap(runtime, sch)
		runtime = wrapper.Runtime
		sch = wrapper.Schema
	}

	sopts := []server.Option{
		server.WithGraphiQL(enableGraphiQL),
		server.WithMaxBodyBytes(maxBody),
		server.WithMetadataHeaders(append([]string{a.cfg.CsrfHeader, "Cookie"}, metadataHeaders...)...),
	}
	if pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if timeout > 0 {
		sopts = append(sopts, server.WithTimeout(timeout))
	}
	if len(corsOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(corsOrigins...))
	}
	h, err := server.New(runtime, sch, sopts...)
	if err != nil {
		return fmt.Errorf("server init: %w", err)
	}
	page, err := server.NewFormPage(a.vars, sopts...)
	if err != nil {
		return fmt.Errorf("form page init: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", h)
	mux.Handle("/forms/{handle}", page)

	logger.Info("formie server listening", "addr", addr, "forms", len(a.forms))
	return http.ListenAndServe(addr, mux)
}

func cmdCompileSDL(args []string, stdout, stderr io.Writer) error {
	configPath := "formie.yaml"
	formsDir := ""
	outFile := ""
	fs := flag.NewFlagSet("compile-sdl", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&configPath, "config", configPath, "Plugin configuration")
	fs.StringVar(&formsDir, "forms", formsDir, "Form definitions directory")
	fs.StringVar(&outFile, "out", outFile, "Write SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, compileSDLUsage)
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	a, err := loadApp(ctx, configPath, formsDir)
	if err != nil {
		return err
	}
	sch, _, err := a.buildSchema()
	if err != nil {
		return err
	}
	sdl := schema.Render(sch)
	if outFile == "" {
		fmt.Fprint(stdout, sdl)
		return nil
	}
	return os.WriteFile(outFile, []byte(sdl), 0644)
}

func cmdRender(args []string, stdout, stderr io.Writer) error {
	configPath := "formie.yaml"
	formsDir := ""
	handle := ""
	options := ""
	populate := ""
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&configPath, "config", configPath, "Plugin configuration")
	fs.StringVar(&formsDir, "forms", formsDir, "Form definitions directory")
	fs.StringVar(&handle, "handle", handle, "Form to render")
	fs.StringVar(&options, "options", options, "Render options as JSON")
	fs.StringVar(&populate, "populate", populate, "Field values as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, renderUsage)
		return err
	}
	if handle == "" {
		fmt.Fprint(stderr, renderUsage)
		return fmt.Errorf("-handle is required")
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := rendering.NewPageContext(csrf.NewContext(ctxlog.WithLogger(context.Background(), logger)))

	a, err := loadApp(ctx, configPath, formsDir)
	if err != nil {
		return err
	}
	f, err := a.vars.Form(ctx, handle)
	if err != nil {
		return err
	}
	if populate != "" {
		a.vars.PopulateFormValues(f, form.DecodeIfJSON(populate), false)
	}
	var opts any
	if options != "" {
		opts = form.DecodeIfJSON(options)
	}
	html, err := a.vars.RenderForm(ctx, f, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, html)
	return nil
}

func cmdNewForm(args []string, stdout, stderr io.Writer) error {
	outFile := ""
	fs := flag.NewFlagSet("new-form", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&outFile, "out", outFile, "Write the YAML definition to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, newFormUsage)
		return err
	}

	doc, err := scaffold.Run(context.Background(), newPrompter())
	if err != nil {
		return err
	}
	if outFile == "" {
		return scaffold.Write(stdout, doc)
	}
	var buf bytes.Buffer
	if err := scaffold.Write(&buf, doc); err != nil {
		return err
	}
	return os.WriteFile(outFile, buf.Bytes(), 0644)
}

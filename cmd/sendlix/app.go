package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/pflag"
	"google.golang.org/grpc"
	"gopkg.in/yaml.v3"

	"github.com/sendlix/sendlix-go/internal/config"
	"github.com/sendlix/sendlix-go/internal/logging"
	"github.com/sendlix/sendlix-go/internal/transport"
	"github.com/sendlix/sendlix-go/pkg/auth"
	"github.com/sendlix/sendlix-go/pkg/eml"
	sdkerrors "github.com/sendlix/sendlix-go/pkg/errors"
	"github.com/sendlix/sendlix-go/pkg/execution"
)

const exitUsage = 2

type app struct {
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader

	// dialOptions are appended to every connection the command opens.
	dialOptions []grpc.DialOption
	newS3       func(ctx context.Context, cfg *config.Config) (eml.S3GetObjectAPI, error)
}

func newApp() *app {
	return &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		stdin:  os.Stdin,
		newS3:  defaultS3,
	}
}

// env is what a command needs once flags and config are resolved.
type env struct {
	*app
	cfg    *config.Config
	logger *slog.Logger
	auth   *auth.Auth
	flags  *pflag.FlagSet

	tlsConfig *tls.Config
}

type command struct {
	usage string
	flags func(fs *pflag.FlagSet)
	run   func(ctx context.Context, e *env) (any, error)
}

var commands = map[string]command{
	"send":         sendCommand,
	"send-eml":     sendEMLCommand,
	"send-group":   sendGroupCommand,
	"group add":    groupAddCommand,
	"group remove": groupRemoveCommand,
	"group check":  groupCheckCommand,
}

func globalFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.String("api-key", "", "API key in secret.keyId form (env SENDLIX_API_KEY)")
	fs.String("target", transport.DefaultTarget, "API address")
	fs.Bool("insecure", false, "disable TLS")
	fs.Duration("timeout", 0, "deadline for the whole command (default 30s)")
	fs.String("schema-version", "", "email request schema: 1 or 2 (default 2)")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.String("log-format", "", "text or json")
	fs.String("aws-region", "", "region for s3:// sources")
	fs.String("aws-profile", "", "shared config profile for s3:// sources")
	fs.String("ca-file", "", "PEM file with extra root CAs")
	fs.String("cert-file", "", "client certificate for mutual TLS")
	fs.String("key-file", "", "client key for mutual TLS")
	fs.String("server-name", "", "TLS server name override")
}

func (a *app) usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(a.stderr, "usage: sendlix <command> [flags]")
	fmt.Fprintln(a.stderr, "\ncommands:")
	for _, name := range names {
		fmt.Fprintf(a.stderr, "  %-14s %s\n", name, commands[name].usage)
	}

	fs := pflag.NewFlagSet("global", pflag.ContinueOnError)
	globalFlags(fs)
	fmt.Fprintf(a.stderr, "\nglobal flags:\n%s", fs.FlagUsages())
}

func (a *app) run(ctx context.Context, args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		a.usage()
		return exitUsage
	}

	name, rest := args[0], args[1:]
	if name == "group" && len(rest) > 0 {
		name, rest = name+" "+rest[0], rest[1:]
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(a.stderr, "unknown command %q\n\n", name)
		a.usage()
		return exitUsage
	}

	fs := pflag.NewFlagSet("sendlix "+name, pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	globalFlags(fs)
	cmd.flags(fs)
	if err := fs.Parse(rest); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return exitUsage
	}

	configPath, _ := fs.GetString("config")
	cfg, err := config.Load(configPath, fs)
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return exitUsage
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, a.stderr)
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return exitUsage
	}
	classifier := sdkerrors.NewErrorClassifier(logger)

	e := &env{app: a, cfg: cfg, logger: logger, flags: fs}
	result, err := execution.WithTimeout(ctx, cfg.Timeout, func(ctx context.Context) (any, error) {
		if err := e.authenticate(); err != nil {
			return nil, err
		}
		defer func() {
			if err := e.auth.Close(); err != nil {
				logger.Warn("failed to close auth connection", "error", err)
			}
		}()
		return cmd.run(ctx, e)
	})
	if err != nil {
		classified := classifier.Classify(err, name)
		_ = classifier.Log(ctx, classified)
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return classified.Class.ExitCode()
	}

	enc := yaml.NewEncoder(a.stdout)
	defer enc.Close()
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func (e *env) authenticate() error {
	opts := []auth.Option{
		auth.WithTarget(e.cfg.Target),
		auth.WithLogger(e.logger),
		auth.WithDialOptions(e.dialOptions...),
	}
	if e.cfg.Insecure {
		opts = append(opts, auth.WithInsecure())
	} else if e.cfg.HasTLSOverrides() {
		tlsConfig, err := transport.ConfigureClientTLS(e.cfg.TLSOptions())
		if err != nil {
			return err
		}
		e.tlsConfig = tlsConfig
		opts = append(opts, auth.WithTLSConfig(tlsConfig))
	}

	a, err := auth.New(e.cfg.APIKey, opts...)
	if err != nil {
		return err
	}
	e.auth = a
	return nil
}

func defaultS3(ctx context.Context, cfg *config.Config) (eml.S3GetObjectAPI, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.AWS.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.AWS.Region))
	}
	if cfg.AWS.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

// keyValues renders a flag map for debug logging without values.
func keyValues(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

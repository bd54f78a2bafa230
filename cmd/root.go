// Package cmd implements the registra command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/registra-io/registra/internal/config"
	"github.com/registra-io/registra/internal/identity"
	"github.com/registra-io/registra/internal/infrastructure/sqlite"
	"github.com/registra-io/registra/internal/log"
	"github.com/registra-io/registra/internal/notify"
	registryapp "github.com/registra-io/registra/internal/registry/application"
	registry "github.com/registra-io/registra/internal/registry/domain"
	"github.com/registra-io/registra/internal/schema"
	"github.com/registra-io/registra/internal/tracing"
	workflowapp "github.com/registra-io/registra/internal/workflow/application"
)

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "registra",
	Short:   "A governed metadata registry",
	Long:    `A metadata registry for data set definitions, data elements and value domains, with versioned items, registration statuses and an approval workflow.`,
	Version: version,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .registra/config.yaml)")
	rootCmd.PersistentFlags().String("db", "",
		"path to the registry database")
	rootCmd.PersistentFlags().Bool("ephemeral", false,
		"run against a throwaway in-memory database")
	rootCmd.PersistentFlags().String("actor", "",
		"acting principal for this invocation")

	_ = viper.BindPFlag("database_path", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("ephemeral", rootCmd.PersistentFlags().Lookup("ephemeral"))
	_ = viper.BindPFlag("actor", rootCmd.PersistentFlags().Lookup("actor"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("database_path", defaults.DatabasePath)
	viper.SetDefault("ephemeral", defaults.Ephemeral)
	viper.SetDefault("actor", defaults.Actor)
	viper.SetDefault("schema.path", defaults.Schema.Path)
	viper.SetDefault("schema.watch", defaults.Schema.Watch)
	viper.SetDefault("roles.path", defaults.Roles.Path)
	viper.SetDefault("log.enabled", defaults.Log.Enabled)
	viper.SetDefault("log.path", defaults.Log.Path)
	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .registra/config.yaml (current directory)
		// 2. ~/.config/registra/config.yaml (user config)
		if _, err := os.Stat(filepath.Join(".registra", "config.yaml")); err == nil {
			viper.SetConfigFile(filepath.Join(".registra", "config.yaml"))
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "registra"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .registra/config.yaml
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultPath := filepath.Join(".registra", "config.yaml")
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// app bundles the wired services behind one CLI invocation.
type app struct {
	db       *sqlite.DB
	registry *registryapp.RegistryService
	workflow *workflowapp.WorkflowEngine
	broker   *notify.BrokerSink
	watcher  *schema.Watcher
	tracing  *tracing.Provider
	logClose func()
}

// buildApp opens the database and wires the governance core. The caller must
// Close it.
func buildApp() (*app, error) {
	a := &app{}

	if cfg.Log.Enabled {
		closeLog, err := log.Init(cfg.Log.Path)
		if err != nil {
			return nil, fmt.Errorf("init logging: %w", err)
		}
		a.logClose = closeLog
		log.SetMinLevel(config.ParseLevel(cfg.Log.Level))
	}

	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.tracing = tp

	if cfg.Ephemeral {
		a.db, err = sqlite.NewMemoryDB()
	} else {
		a.db, err = sqlite.NewDB(cfg.DatabasePath)
	}
	if err != nil {
		a.Close()
		return nil, err
	}

	holder := schema.NewHolder(registry.ExtensionSchema{})
	if cfg.Schema.Path != "" {
		s, err := schema.Load(cfg.Schema.Path)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("load extension schema: %w", err)
		}
		holder.Replace(s)
		if cfg.Schema.Watch {
			w, err := schema.NewWatcher(schema.DefaultWatchConfig(cfg.Schema.Path), holder)
			if err != nil {
				log.ErrorErr(log.CatSchema, "schema watcher unavailable", err)
			} else if _, err := w.Start(); err != nil {
				log.ErrorErr(log.CatSchema, "schema watcher failed to start", err)
			} else {
				a.watcher = w
			}
		}
	}

	var provider identity.Provider
	if cfg.Roles.Path != "" {
		p, err := identity.LoadAssignments(cfg.Roles.Path)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("load role assignments: %w", err)
		}
		provider = p
	}

	a.broker = notify.NewBrokerSink()
	sink := notify.NewFanout(a.broker, notify.LogSink{})

	a.registry = registryapp.NewRegistryService(registryapp.Deps{
		Store:    a.db.CatalogStore(),
		Rels:     a.db.RelationshipRepository(),
		Schemas:  holder,
		Identity: provider,
		Notifier: sink,
		Tracer:   tp.Tracer(),
	})
	a.workflow = workflowapp.NewWorkflowEngine(
		a.db.RequestRepository(), a.registry, provider, tp.Tracer(),
	)
	a.registry.SetRequestCloser(a.workflow)
	return a, nil
}

// Close releases everything buildApp acquired, in reverse order.
func (a *app) Close() {
	if a.watcher != nil {
		_ = a.watcher.Stop()
	}
	if a.broker != nil {
		a.broker.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.tracing != nil {
		_ = a.tracing.Shutdown(context.Background())
	}
	if a.logClose != nil {
		a.logClose()
	}
}

// actor resolves the acting principal. The --actor flag is bound into the
// config, so the flag wins over the file.
func actor() string {
	if cfg.Actor != "" {
		return cfg.Actor
	}
	return "anonymous"
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string shown by --version.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cloudsave/internal/config"
	"cloudsave/internal/http"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
	}

	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigSetCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

func mask(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Printf("Provider:           %s\n", cfg.ProviderKind)
			fmt.Printf("Base URL:           %s\n", cfg.BaseURL)
			fmt.Printf("Cookie:             %s\n", mask(cfg.Cookie))
			fmt.Printf("Default target dir: %s\n", cfg.DefaultTargetDir)
			fmt.Printf("Proxy mode:         %s\n", cfg.Proxy.Mode)
			if cfg.Proxy.Host != "" {
				fmt.Printf("Proxy host:         %s:%s\n", cfg.Proxy.Host, cfg.Proxy.Port)
			}

			if err := cfg.Validate(); err != nil {
				fmt.Printf("\nConfig is incomplete: %v\n", err)
			}
			if http.NeedsProxyPassword(cfg) {
				fmt.Printf("\nProxy user %q has no password; proxy auth is disabled until one is set with --proxy-password.\n", cfg.Proxy.User)
			}
			return nil
		},
	}
}

// newConfigSetCmd creates the 'config set' command.
func newConfigSetCmd() *cobra.Command {
	var (
		cookie           string
		baseURL          string
		providerKind     string
		defaultTargetDir string
		proxyMode        string
		proxyHost        string
		proxyPort        string
		proxyUser        string
		proxyPassword    string
		noProxy          string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set configuration values",
		Long: `Set configuration values. Only the given flags change; the rest of
the config is kept.

Example:
  cloudsave config set --cookie "COOKIE_LOGIN_USER=..."
  cloudsave config set --proxy-mode basic --proxy-host proxy.corp --proxy-port 3128`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			set := func(flag string, dst *string, val string) {
				if cmd.Flags().Changed(flag) {
					*dst = val
				}
			}
			set("cookie", &cfg.Cookie, cookie)
			set("base-url", &cfg.BaseURL, baseURL)
			set("provider", &cfg.ProviderKind, providerKind)
			set("default-target-dir", &cfg.DefaultTargetDir, defaultTargetDir)
			set("proxy-mode", &cfg.Proxy.Mode, proxyMode)
			set("proxy-host", &cfg.Proxy.Host, proxyHost)
			set("proxy-port", &cfg.Proxy.Port, proxyPort)
			set("proxy-user", &cfg.Proxy.User, proxyUser)
			set("proxy-password", &cfg.Proxy.Password, proxyPassword)
			set("no-proxy", &cfg.Proxy.NoProxy, noProxy)

			if err := config.Save(cfg, cfgFile); err != nil {
				return err
			}

			fmt.Println("Configuration saved.")
			if err := cfg.Validate(); err != nil {
				fmt.Printf("Config is still incomplete: %v\n", err)
			}
			if http.NeedsProxyPassword(cfg) {
				fmt.Printf("Proxy user %q has no password; proxy auth is disabled until one is set with --proxy-password.\n", cfg.Proxy.User)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cookie, "cookie", "", "Session cookie")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Provider base URL")
	cmd.Flags().StringVar(&providerKind, "provider", "", "Provider kind")
	cmd.Flags().StringVar(&defaultTargetDir, "default-target-dir", "", "Default save target directory id")
	cmd.Flags().StringVar(&proxyMode, "proxy-mode", "", "Proxy mode: no-proxy, system, basic, ntlm")
	cmd.Flags().StringVar(&proxyHost, "proxy-host", "", "Proxy host")
	cmd.Flags().StringVar(&proxyPort, "proxy-port", "", "Proxy port")
	cmd.Flags().StringVar(&proxyUser, "proxy-user", "", "Proxy user")
	cmd.Flags().StringVar(&proxyPassword, "proxy-password", "", "Proxy password")
	cmd.Flags().StringVar(&noProxy, "no-proxy", "", "Comma-separated proxy bypass list")

	return cmd
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				fmt.Println(cfgFile)
				return nil
			}
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}

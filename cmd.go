package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bagaking/gemini-proxy/config"
	"github.com/bagaking/gemini-proxy/gemini"
	"github.com/bagaking/gemini-proxy/proxy"
)

type rootOptions struct {
	cfgPath string
}

type serveOptions struct {
	listen  string
	variant string
}

func newRootCmd() *cobra.Command {
	root := &rootOptions{}
	serve := &serveOptions{}

	cmd := &cobra.Command{
		Use:           "gemini-proxy",
		Short:         "Gemini generateContent 代理",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, root, serve)
		},
	}
	cmd.PersistentFlags().StringVarP(&root.cfgPath, "config", "c", config.DefaultPath, "config yaml path")
	addServeFlags(cmd, serve)

	cmd.AddCommand(newServeCmd(root), newCheckCmd(root))
	return cmd
}

func addServeFlags(cmd *cobra.Command, opts *serveOptions) {
	fs := cmd.Flags()
	fs.StringVar(&opts.listen, "listen", "", "listen address (override server.listen)")
	fs.StringVar(&opts.variant, "variant", "", "upstream variant: "+variantList())
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动代理服务",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, root, opts)
		},
	}
	addServeFlags(cmd, opts)
	return cmd
}

func newCheckCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "校验配置并打印上游地址（不发起网络请求）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.cfgPath)
			if err != nil {
				return err
			}
			return printCheck(cmd, cfg)
		},
	}
}

func runServe(cmd *cobra.Command, root *rootOptions, opts *serveOptions) error {
	cfg, err := loadWithOverrides(root.cfgPath, opts)
	if err != nil {
		return err
	}
	return proxy.NewProxy(cfg, proxy.Options{}).Start(cmd.Context())
}

func loadWithOverrides(path string, opts *serveOptions) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(opts.listen); v != "" {
		cfg.Server.Listen = v
	}
	if v := strings.TrimSpace(opts.variant); v != "" {
		cfg.Upstream.Variant = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// printCheck 输出生效配置，凭证缺失时提示但不报错
func printCheck(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()
	s := cfg.UpstreamSettings()
	_, _ = fmt.Fprintf(out, "listen:   %s\n", cfg.Server.Listen)
	_, _ = fmt.Fprintf(out, "path:     %s\n", cfg.Server.Path)
	_, _ = fmt.Fprintf(out, "variant:  %s\n", s.Variant)

	ep, err := s.Endpoint()
	if err != nil {
		_, _ = fmt.Fprintf(out, "upstream: unavailable (%s)\n", err)
		return nil
	}
	_, _ = fmt.Fprintf(out, "upstream: %s\n", ep.Redacted())
	if ep.Bearer != "" {
		_, _ = fmt.Fprintln(out, "auth:     bearer")
	}
	return nil
}

func variantList() string {
	vs := gemini.Variants()
	names := make([]string, 0, len(vs))
	for _, v := range vs {
		names = append(names, string(v))
	}
	return strings.Join(names, ", ")
}

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/codeloom/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set codeloom configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("endpoints: %s\n", strings.Join(cfg.Endpoints, ", "))
		fmt.Printf("coding_path: %s\n", cfg.CodingPath)
		fmt.Printf("plain_flag: %s\n", cfg.PlainFlag)
		fmt.Printf("http_timeout_sec: %d\n", cfg.HTTPTimeoutSec)
		fmt.Printf("fetch_delay_ms: %d\n", cfg.FetchDelayMs)
		fmt.Printf("cache_file: %s\n", cfg.CacheFile)
		fmt.Printf("style: %s\n", cfg.Style)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "endpoints":
			var list []string
			for _, e := range strings.Split(val, ",") {
				if e = strings.TrimSpace(e); e != "" {
					list = append(list, e)
				}
			}
			if len(list) == 0 {
				return fmt.Errorf("endpoints needs at least one base URL")
			}
			cfg.Endpoints = list
		case "coding_path":
			cfg.CodingPath = val
		case "plain_flag":
			cfg.PlainFlag = val
		case "http_timeout_sec":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid int for http_timeout_sec: %v", val)
			}
			cfg.HTTPTimeoutSec = i
		case "fetch_delay_ms":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for fetch_delay_ms: %v", val)
			}
			cfg.FetchDelayMs = i
		case "cache_file":
			cfg.CacheFile = val
		case "style":
			cfg.Style = val
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ebr",
	Short: "eBR restaurant back-office",
	Long: "eBR is the back-office of a restaurant: onboarding (signup, email validation, offer, payment), " +
		"companies, employees, menus, tables and sales statistics. `ebr serve` runs the browser console; " +
		"the other commands drive the same flows from a terminal.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults plus EBR_* environment)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log onboarding transitions and upstream calls")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

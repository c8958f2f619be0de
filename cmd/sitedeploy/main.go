package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/cecvic-wigoh/ten-web-clone-sub000/internal/deploy"
	"github.com/cecvic-wigoh/ten-web-clone-sub000/internal/domain"
	"github.com/cecvic-wigoh/ten-web-clone-sub000/internal/media"
	"github.com/cecvic-wigoh/ten-web-clone-sub000/internal/page"
	"github.com/cecvic-wigoh/ten-web-clone-sub000/internal/restclient"
	"github.com/cecvic-wigoh/ten-web-clone-sub000/pkg/config"
	"github.com/cecvic-wigoh/ten-web-clone-sub000/pkg/logger"
)

var buildVersion = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "deploy":
		err = commandDeploy(args)
	case "rollback":
		err = commandRollback(args)
	case "status":
		err = commandStatus(args)
	case "version", "--version", "-v":
		fmt.Printf("sitedeploy %s\n", buildVersion)
		return
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: sitedeploy <command> [flags]

Commands:
  deploy    Publish a generated site to the remote CMS
  rollback  Delete everything a prior deployment created
  status    Show the stored result of a deployment
  version   Print version information

Target credentials come from CMS_BASE_URL, CMS_USERNAME and
CMS_APP_SECRET; see pkg/config for the full list.`)
}

func newOrchestrator() (*deploy.Service, error) {
	cfg := config.LoadTargetConfig()
	log := logger.New("sitedeploy", logger.ParseLevel(config.GetString("LOG_LEVEL", "info")))

	rest, err := restclient.New(restclient.Config{
		BaseURL:       cfg.BaseURL,
		Username:      cfg.Username,
		AppSecret:     cfg.AppSecret,
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay,
		Timeout:       cfg.Timeout,
		QueryRouting:  cfg.QueryRouting,
	})
	if err != nil {
		return nil, err
	}

	var store deploy.Store
	if cfg.DeployStoreRedisAddr != "" {
		redisStore, err := deploy.NewRedisStore(cfg.DeployStoreRedisAddr, cfg.DeployStoreRedisPass, cfg.DeployStoreRedisDB)
		if err != nil {
			return nil, err
		}
		store = redisStore
	}

	uploader := media.New(rest, log)
	pages := page.New(rest, log)
	return deploy.New(uploader, pages, rest, store, log), nil
}

func commandDeploy(args []string) error {
	fs := flag.NewFlagSet("deploy", flag.ExitOnError)
	siteFile := fs.String("site", "site.json", "Path to the generated site JSON file")
	dryRun := fs.Bool("dry-run", false, "Publish every page as a draft")
	continueOnError := fs.Bool("continue-on-error", false, "Skip failed pages instead of stopping")
	navigation := fs.Bool("navigation", false, "Replace the remote navigation menu")
	concurrency := fs.Int("concurrency", media.DefaultConcurrency, "Max simultaneous media uploads")
	fs.Parse(args)

	data, err := os.ReadFile(*siteFile)
	if err != nil {
		return fmt.Errorf("read site file: %w", err)
	}
	var site domain.Site
	if err := json.Unmarshal(data, &site); err != nil {
		return fmt.Errorf("parse site file: %w", err)
	}
	if len(site.Pages) == 0 {
		return errors.New("site file contains no pages")
	}

	svc, err := newOrchestrator()
	if err != nil {
		return err
	}
	result, err := svc.Deploy(context.Background(), site, deploy.Options{
		DryRun:           *dryRun,
		ContinueOnError:  *continueOnError,
		UpdateNavigation: *navigation,
		MediaConcurrency: *concurrency,
	})
	if err != nil {
		return err
	}
	printJSON(result)
	if !result.Success {
		os.Exit(2)
	}
	return nil
}

func commandRollback(args []string) error {
	fs := flag.NewFlagSet("rollback", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("usage: sitedeploy rollback <deployment-id>")
	}
	svc, err := newOrchestrator()
	if err != nil {
		return err
	}
	if err := svc.Rollback(context.Background(), fs.Arg(0)); err != nil {
		return err
	}
	fmt.Printf("deployment %s rolled back\n", fs.Arg(0))
	return nil
}

func commandStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("usage: sitedeploy status <deployment-id>")
	}
	svc, err := newOrchestrator()
	if err != nil {
		return err
	}
	result, err := svc.DeploymentStatus(context.Background(), fs.Arg(0))
	if err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("deployment %s not found", fs.Arg(0))
	}
	printJSON(result)
	return nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tracklife/trajd/api"
	"github.com/tracklife/trajd/daemon/webd"
	"github.com/tracklife/trajd/geoidx"
	"github.com/tracklife/trajd/params"
)

var optHTTPAddr string
var optHTTPPort int

// webdCmd represents the serve command
var webdCmd = &cobra.Command{
	Use:   "webd",
	Short: "Start the webserver",
	Long:  `Serves the analytics queries over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		slog.Info("webd.Run")

		s, closer, err := openStore()
		if err != nil {
			log.Fatalln(err)
		}
		defer func() { _ = closer() }()

		analyzer, err := api.NewAnalyzer(s, nil)
		if err != nil {
			log.Fatalln(err)
		}

		indexPath := filepath.Join(optDatadir, params.IndexDBName)
		if _, err := os.Stat(indexPath); err == nil {
			ci, err := geoidx.NewCellIndexer(indexPath, nil)
			if err != nil {
				log.Fatalln(err)
			}
			defer func() { _ = ci.Close() }()
			analyzer.Indexer = ci
		}

		config := params.DefaultWebDaemonConfig()
		config.NetAddr = optHTTPAddr
		config.NetPort = optHTTPPort

		server := webd.NewWebDaemon(config, analyzer)
		if err := server.Run(); err != nil {
			log.Fatalln(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(webdCmd)

	defaults := params.DefaultWebDaemonConfig()
	pFlags := webdCmd.PersistentFlags()
	pFlags.StringVar(&optHTTPAddr, "address", defaults.NetAddr, "HTTP address to listen on")
	pFlags.IntVar(&optHTTPPort, "port", defaults.NetPort, "HTTP port to listen on")
}

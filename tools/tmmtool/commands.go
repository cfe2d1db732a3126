package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tmmtools/tmm_browser/config"
	"github.com/tmmtools/tmm_browser/pack/tmm"
	"github.com/tmmtools/tmm_browser/pack/tmm/tmmtest"
	"github.com/tmmtools/tmm_browser/utils"
	"github.com/tmmtools/tmm_browser/vfs"
	"github.com/tmmtools/tmm_browser/web"
)

var log = logrus.WithField("component", "tmmtool")

type rootFlags struct {
	settingsPath string
	encoding     string
	verbose      bool
	settings     config.Settings
}

// load resolves settings once, before any subcommand runs.
func (rf *rootFlags) load() error {
	if rf.verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	rf.settings = config.DefaultSettings()
	if rf.settingsPath != "" {
		s, err := config.LoadSettings(rf.settingsPath)
		if err != nil {
			return err
		}
		rf.settings = s
	}
	rf.settings.Override(config.Settings{Encoding: rf.encoding})
	return rf.settings.Apply()
}

func NewRootCmd() *cobra.Command {
	rf := &rootFlags{}

	root := &cobra.Command{
		Use:           "tmmtool",
		Short:         "Inspect and rebuild BTMM model metadata files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rf.load()
		},
	}
	root.PersistentFlags().StringVar(&rf.settingsPath, "config", "", "yaml settings file")
	root.PersistentFlags().StringVar(&rf.encoding, "encoding", "", "code page of names (see 'tmmtool encodings')")
	root.PersistentFlags().BoolVarP(&rf.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newDumpCmd(),
		newJsonCmd(),
		newYamlCmd(),
		newLayoutCmd(),
		newVerifyCmd(rf),
		newBuildCmd(),
		newGenCmd(),
		newServeCmd(rf),
		newEncodingsCmd(),
	)
	return root
}

func decodeFile(path string) (*tmm.TmmFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read %q", path)
	}
	f, err := tmm.DecodeWithEncoding(raw, config.GetEncoding())
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to decode %q", path)
	}
	return f, nil
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file.tmm>",
		Short: "Print the decoded document as a go value tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := decodeFile(args[0])
			if err != nil {
				return err
			}
			utils.FDump(cmd.OutOrStdout(), f)
			return nil
		},
	}
}

func newJsonCmd() *cobra.Command {
	var summary bool
	cmd := &cobra.Command{
		Use:   "json <file.tmm>",
		Short: "Print the decoded document as json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := decodeFile(args[0])
			if err != nil {
				return err
			}
			var v interface{} = f
			if summary {
				v = f.Marshal(filepath.Base(args[0])).Models
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
	}
	cmd.Flags().BoolVar(&summary, "summary", false, "print per-model summaries only")
	return cmd
}

func newYamlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "yaml <file.tmm>",
		Short: "Print the decoded document as yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := decodeFile(args[0])
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			if err := enc.Encode(f); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func newLayoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layout <file.tmm>",
		Short: "Print byte ranges of every decoded structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrapf(err, "Failed to read %q", args[0])
			}
			layout, err := tmm.DecodeLayout(raw, config.GetEncoding())
			fmt.Fprint(cmd.OutOrStdout(), layout)
			return err
		},
	}
}

// expandPaths replaces directories with the .tmm files directly inside them.
func expandPaths(args []string) ([]string, error) {
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "Stat %q", arg)
		}
		if !st.IsDir() {
			paths = append(paths, arg)
			continue
		}
		names, err := vfs.DirectoryFilesByExt(vfs.NewDirectoryDriver(arg), ".tmm")
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			paths = append(paths, filepath.Join(arg, name))
		}
	}
	return paths, nil
}

func newVerifyCmd(rf *rootFlags) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "verify <file.tmm|dir>...",
		Short: "Decode, re-encode and byte-compare files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := expandPaths(args)
			if err != nil {
				return err
			}
			if workers <= 0 {
				workers = rf.settings.Workers
			}

			results := tmm.VerifyFiles(paths, workers, config.GetEncoding(), func(done, total int) {
				log.WithFields(logrus.Fields{"done": done, "total": total}).Debug("verify progress")
			})

			out := cmd.OutOrStdout()
			failed := 0
			for _, res := range results {
				switch {
				case res.Err != nil:
					failed++
					fmt.Fprintf(out, "FAIL  %s: %v\n", res.Path, res.Err)
				case !res.Identical:
					failed++
					fmt.Fprintf(out, "DIFF  %s: %d models, first difference at 0x%x\n", res.Path, res.Models, res.MismatchOffset)
				default:
					fmt.Fprintf(out, "OK    %s: %d models, %d bytes\n", res.Path, res.Models, res.Size)
				}
			}
			log.Infof("verified %d files, %d failed", len(results), failed)
			if failed != 0 {
				return errors.Errorf("%d of %d files failed verification", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "parallel workers (default from settings)")
	return cmd
}

func readDocument(path string) (*tmm.TmmFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read %q", path)
	}
	var f tmm.TmmFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &f)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		return nil, errors.Errorf("Unknown document format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to parse %q", path)
	}
	return &f, nil
}

// writeAtomic replaces path through vfs so a failed write keeps the old file.
func writeAtomic(path string, raw []byte) error {
	return vfs.NewDirectoryDriverFile(path).Copy(bytes.NewReader(raw))
}

func newBuildCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "build <doc.json|doc.yaml>",
		Short: "Encode a json or yaml document into a .tmm file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := readDocument(args[0])
			if err != nil {
				return err
			}
			raw, err := f.EncodeWithEncoding(config.GetEncoding())
			if err != nil {
				return errors.Wrapf(err, "Failed to encode %q", args[0])
			}
			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".tmm"
			}
			if err := writeAtomic(output, raw); err != nil {
				return err
			}
			log.Infof("wrote %s (%d bytes, %d models)", output, len(raw), len(f.ModelInfos))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: input name with .tmm)")
	return cmd
}

func newGenCmd() *cobra.Command {
	var seed int64
	var skinned, static int
	var output string
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a random well-formed .tmm file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			models := make([]tmmtest.ModelOptions, 0, skinned+static)
			for i := 0; i < skinned; i++ {
				models = append(models, tmmtest.Skinned)
			}
			for i := 0; i < static; i++ {
				models = append(models, tmmtest.Static)
			}
			raw, err := tmmtest.NewFile(seed, models...).EncodeWithEncoding(config.GetEncoding())
			if err != nil {
				return err
			}
			if output == "" {
				_, err = io.Copy(cmd.OutOrStdout(), bytes.NewReader(raw))
				return err
			}
			return writeAtomic(output, raw)
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().IntVar(&skinned, "skinned", 1, "number of skinned models")
	cmd.Flags().IntVar(&static, "static", 1, "number of static models")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: stdout)")
	return cmd
}

func newServeCmd(rf *rootFlags) *cobra.Command {
	var addr, webPath string
	cmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Start the web browser over a directory of .tmm files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := rf.settings
			o := config.Settings{Addr: addr, Web: webPath}
			if len(args) == 1 {
				o.Dir = args[0]
			}
			s.Override(o)
			if s.Dir == "" {
				return errors.New("no directory given")
			}
			return web.StartServer(s.Addr, vfs.NewDirectoryDriver(s.Dir), s.Web)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "i", "", "listen address")
	cmd.Flags().StringVar(&webPath, "web", "", "path to web resources")
	return cmd
}

func newEncodingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encodings",
		Short: "List code pages usable with --encoding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListEncodings() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

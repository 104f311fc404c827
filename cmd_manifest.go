package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"topics_go/internal/manifest"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	manifestRoot      string
	manifestList      string
	manifestExclude   string
	manifestFile      string
	manifestRemoteKey string
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Pack files into a JSON manifest and unpack them again",
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Read the include list and write {path, contents} pairs to a JSON file",
	Long: `Reads the include list (one relative path per line, blank lines and # comments
ignored), walks every listed directory recursively and writes a JSON array of
{path, contents} objects. Paths from the optional exclude list are skipped; they
may be exact paths, directory prefixes or ** globs.`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

var populateCmd = &cobra.Command{
	Use:   "populate",
	Short: "Write every {path, contents} entry of a JSON manifest back to disk",
	Args:  cobra.NoArgs,
	RunE:  runPopulate,
}

var filelistCmd = &cobra.Command{
	Use:   "filelist",
	Short: "Write the names of all top-level entries of the root directory to the list file",
	Args:  cobra.NoArgs,
	RunE:  runFileList,
}

func init() {
	manifestCmd.PersistentFlags().StringVar(&manifestRoot, "root", ".", "root directory for relative paths")
	manifestCmd.PersistentFlags().StringVar(&manifestList, "list", manifest.DefaultListName, "include list file, relative to --root")
	manifestCmd.PersistentFlags().StringVar(&manifestFile, "file", "output.json", "manifest JSON file")
	manifestCmd.PersistentFlags().StringVar(&manifestRemoteKey, "remote-key", "", "object key in the S3 bucket instead of a local file")
	extractCmd.Flags().StringVar(&manifestExclude, "exclude", "", "optional exclude list file, relative to --root")

	manifestCmd.AddCommand(extractCmd, populateCmd, filelistCmd)
}

func openRemote() (manifest.ObjectStore, error) {
	s3 := cfg.Manifest.S3
	return manifest.NewS3Store(manifest.S3Config{
		Endpoint:  s3.Endpoint,
		Region:    s3.Region,
		AccessKey: s3.AccessKey,
		SecretKey: s3.SecretKey,
		Bucket:    s3.Bucket,
		UseSSL:    s3.UseSSL,
	})
}

// resolveInRoot - относительные пути списков отсчитываются от --root
func resolveInRoot(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(manifestRoot, path)
}

func runExtract(cmd *cobra.Command, args []string) error {
	include, err := manifest.ReadList(resolveInRoot(manifestList))
	if err != nil {
		return err
	}
	var exclude []string
	if manifestExclude != "" {
		exclude, err = manifest.ReadList(resolveInRoot(manifestExclude))
		if err != nil {
			return err
		}
	}

	entries, err := manifest.NewExtractor(manifestRoot, exclude, logger).Extract(cmd.Context(), include)
	if err != nil {
		return err
	}

	if manifestRemoteKey != "" {
		store, err := openRemote()
		if err != nil {
			return err
		}
		if err := manifest.Upload(cmd.Context(), store, manifestRemoteKey, entries); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Done. Uploaded %d entries to %q.\n", len(entries), manifestRemoteKey)
		return nil
	}

	if err := manifest.WriteFile(manifestFile, entries); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Done. Wrote %d entries to %q.\n", len(entries), manifestFile)
	return nil
}

func runPopulate(cmd *cobra.Command, args []string) error {
	var (
		data   []byte
		err    error
		source = manifestFile
	)
	if manifestRemoteKey != "" {
		source = manifestRemoteKey
		store, serr := openRemote()
		if serr != nil {
			return serr
		}
		data, err = manifest.Download(cmd.Context(), store, manifestRemoteKey)
	} else {
		data, err = manifest.ReadFile(manifestFile)
	}
	if err != nil {
		return err
	}

	entries, skipped, err := manifest.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to parse %q: %w", source, err)
	}
	for _, idx := range skipped {
		logger.Warn("[MANIFEST WARN] skipping invalid entry: must be { path: string, contents: string }", zap.Int("index", idx))
	}

	n, err := manifest.Populate(cmd.Context(), manifestRoot, entries, logger)
	if err != nil {
		return err
	}
	suffix := "s"
	if n == 1 {
		suffix = ""
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d file%s from %q.\n", n, suffix, source)
	return nil
}

func runFileList(cmd *cobra.Command, args []string) error {
	skip := []string{}
	// сам исполняемый файл в список не попадает
	if exe, err := os.Executable(); err == nil {
		skip = append(skip, filepath.Base(exe))
	}
	listPath := resolveInRoot(manifestList)
	n, err := manifest.GenerateFileList(manifestRoot, listPath, skip...)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("root directory %q does not exist", manifestRoot)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entries to %q.\n", n, listPath)
	return nil
}

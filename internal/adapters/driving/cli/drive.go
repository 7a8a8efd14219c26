package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gsuite-cli/internal/connectors/google/drive"
)

var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Browse and transfer Drive files",
	Long: `Work with the authenticated Google Drive.

Examples:
  gsuite drive ls
  gsuite drive ls --folders
  gsuite drive download 1aBcD --out report.pdf
  gsuite drive upload ./notes.txt --parent 1FoLdEr`,
}

var driveLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List files",
	RunE:  runDriveLs,
}

var driveDownloadCmd = &cobra.Command{
	Use:   "download [file-id]",
	Short: "Download a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDriveDownload,
}

var driveUploadCmd = &cobra.Command{
	Use:   "upload [path]",
	Short: "Upload a local file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDriveUpload,
}

var (
	driveLsQuery   string
	driveLsParent  string
	driveLsMax     int64
	driveLsFolders bool

	driveDownloadOut string

	driveUploadParent string
	driveUploadName   string
)

func init() {
	driveLsCmd.Flags().StringVar(&driveLsQuery, "query", "", "Raw Drive query expression")
	driveLsCmd.Flags().StringVar(&driveLsParent, "parent", "", "Restrict to a folder's children")
	driveLsCmd.Flags().Int64Var(&driveLsMax, "max", 50, "Maximum number of files")
	driveLsCmd.Flags().BoolVar(&driveLsFolders, "folders", false, "List folders only")

	driveDownloadCmd.Flags().StringVar(&driveDownloadOut, "out", "", "Output path (default: file name)")

	driveUploadCmd.Flags().StringVar(&driveUploadParent, "parent", "", "Destination folder ID")
	driveUploadCmd.Flags().StringVar(&driveUploadName, "name", "", "Name in Drive (default: local name)")

	driveCmd.AddCommand(driveLsCmd)
	driveCmd.AddCommand(driveDownloadCmd)
	driveCmd.AddCommand(driveUploadCmd)
	rootCmd.AddCommand(driveCmd)
}

func driveClient(ctx context.Context) (*drive.Client, error) {
	if err := requireDeps(); err != nil {
		return nil, err
	}
	return drive.NewClient(ctx, deps.Manager,
		drive.WithRetryPolicy(deps.Settings.RetryPolicy()),
		drive.WithRequestTimeout(deps.Settings.RequestTimeoutDuration()))
}

func runDriveLs(cmd *cobra.Command, _ []string) error {
	client, err := driveClient(cmd.Context())
	if err != nil {
		return err
	}

	opts := drive.ListOptions{
		Query:      driveLsQuery,
		ParentID:   driveLsParent,
		MaxResults: driveLsMax,
	}
	if driveLsFolders {
		opts.MIMEType = drive.MIMETypeFolder
	}

	files, err := client.ListFiles(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		cmd.Println("No files.")
		return nil
	}

	for _, f := range files {
		kind := " "
		if f.IsFolder() {
			kind = "d"
		}
		cmd.Printf("%s %-44s %10d  %s  %s\n",
			kind, f.ID, f.Size, f.ModifiedTime.Format("2006-01-02"), f.Name)
	}
	return nil
}

func runDriveDownload(cmd *cobra.Command, args []string) error {
	client, err := driveClient(cmd.Context())
	if err != nil {
		return err
	}

	out := driveDownloadOut
	if out == "" {
		file, found, err := client.GetFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("file %s not found", args[0])
		}
		out = file.Name
	}

	path, err := client.Download(cmd.Context(), args[0], out)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", args[0], err)
	}

	cmd.Printf("Saved to %s\n", path)
	return nil
}

func runDriveUpload(cmd *cobra.Command, args []string) error {
	client, err := driveClient(cmd.Context())
	if err != nil {
		return err
	}

	file, err := client.Upload(cmd.Context(), args[0], drive.UploadOptions{
		Name:     driveUploadName,
		ParentID: driveUploadParent,
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", args[0], err)
	}

	cmd.Printf("Uploaded %s (%s)\n", file.Name, file.ID)
	return nil
}

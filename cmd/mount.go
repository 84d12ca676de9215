package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/winfsp/cgofuse/fuse"

	treefs "github.com/agentic-research/lsgraph/internal/fs"
)

var mountCmd = &cobra.Command{
	Use:   "mount [transcript|tree.db] [mountpoint]",
	Short: "Mount the tree read-only through FUSE",
	Long: `Mount the tree read-only through FUSE (fuse-t, macFUSE or libfuse).
Files read as zeros of their listed size. Runs until the mountpoint is
unmounted or the process is interrupted.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTree(cmd, args[0])
		if err != nil {
			return err
		}
		mountpoint := args[1]

		host := fuse.NewFileSystemHost(treefs.NewTreeFS(t.store))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			host.Unmount()
		}()

		log.Printf("Mounting %d nodes at %s", t.store.Len(), mountpoint)

		// -o uid/gid so the mount is owned by the caller (needed by fuse-t).
		opts := []string{
			"-o", "ro",
			"-o", fmt.Sprintf("uid=%d", os.Getuid()),
			"-o", fmt.Sprintf("gid=%d", os.Getgid()),
		}
		if !host.Mount(mountpoint, opts) {
			return errors.Newf("mount %s failed", mountpoint)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mountCmd)
}

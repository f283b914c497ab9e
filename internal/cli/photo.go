package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewPhotoCommand creates the photo command group.
func NewPhotoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photo",
		Short: "Attach or remove patient photos",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "attach <serial> <image>",
		Short: "Store an image as the patient's photo",
		Long: `Store a PNG, JPEG or GIF image as the patient's photo. The image is
saved as PNG in the photo directory and replaces any earlier photo.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)

			serials, err := parseSerials(args[:1])
			if err != nil {
				return f.Fail(err)
			}
			eng, err := rootOpts.openEngine()
			if err != nil {
				return f.Fail(err)
			}
			p, err := eng.AttachPhoto(serials[0], args[1])
			if err != nil {
				return f.Fail(err)
			}

			if f.IsJSON() {
				return f.Success(p)
			}
			fmt.Fprintf(f.Writer, "Attached %s to patient %d\n", p.PhotoRef, p.SerialNo)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "remove <serial>",
		Short:         "Remove the patient's photo",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)

			serials, err := parseSerials(args)
			if err != nil {
				return f.Fail(err)
			}
			eng, err := rootOpts.openEngine()
			if err != nil {
				return f.Fail(err)
			}
			p, err := eng.RemovePhoto(serials[0])
			if err != nil {
				return f.Fail(err)
			}

			if f.IsJSON() {
				return f.Success(p)
			}
			fmt.Fprintf(f.Writer, "Removed photo of patient %d\n", p.SerialNo)
			return nil
		},
	})

	return cmd
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/23skdu/eigencmc/internal/core"
	cerrors "github.com/23skdu/eigencmc/internal/errors"
	"github.com/23skdu/eigencmc/internal/dataset"
)

func newConvertCmd(a *app) *cobra.Command {
	var manifest, images, tag, out string
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Vectorize one image tag into an Arrow IPC sample set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, err := dataset.ReadManifestFile(manifest)
			if err != nil {
				return err
			}
			set, err := dataset.NewImageLoader(images, a.logger).Load(cmd.Context(), core.SetSample, tag, ids)
			if err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return cerrors.WrapStorageError(err, "convert", "failed to create output").WithContext("path", out)
			}
			if err := dataset.WriteIPC(f, set); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return cerrors.WrapStorageError(err, "convert", "failed to close output").WithContext("path", out)
			}
			a.logger.Info().Str("tag", tag).Int("samples", set.Len()).Int("dim", set.Dim()).Str("out", out).Msg("Set converted")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&manifest, "manifest", "", "identity list, one id per line")
	f.StringVar(&images, "images", "", "image root holding one directory per tag")
	f.StringVar(&tag, "tag", "", "tag to convert, e.g. fa")
	f.StringVar(&out, "out", "", "output Arrow IPC file")
	for _, name := range []string{"manifest", "images", "tag", "out"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

// Package main provides the vialctl command for setting the RGB lighting of
// keyboards running Vial firmware over raw HID.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vialtools/vialctl/internal/color"
	"github.com/vialtools/vialctl/internal/config"
	"github.com/vialtools/vialctl/internal/hid"
	"github.com/vialtools/vialctl/internal/vialrgb"
)

var (
	verbose    bool
	brightness uint8
	noSave     bool
	whitePoint string

	rootCmd = &cobra.Command{
		Use:   "vialctl <HEX_COLOR>",
		Short: "Set RGB color on keyboards running Vial firmware with RGB support",
		Long: fmt.Sprintf(`vialctl sets a solid RGB color on a connected keyboard running Vial
firmware with the VialRGB extension. The color is given as a hex triplet
with an optional leading '#'.

Examples:
  vialctl ff00ff
  vialctl '#00ff00'
  vialctl ff0000 --brightness 80

Config: %s
  Example:
    white_point = [200, 255, 230]`, config.Path()),
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}
)

func init() {
	rootCmd.Flags().Uint8VarP(&brightness, "brightness", "b", 0, "Override the brightness value (0-255)")
	rootCmd.Flags().BoolVar(&noSave, "no-save", false, "Do not save the color to EEPROM")
	rootCmd.Flags().StringVar(&whitePoint, "white-point", "", "White point correction as R,G,B (each channel 1-255)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// resolveWhitePoint picks the effective white point: the CLI flag overrides
// the config file; neither set means no correction.
func resolveWhitePoint(cfg config.Config, flagValue string) (*color.WhitePoint, error) {
	if flagValue == "" {
		return cfg.WhitePoint, nil
	}

	wp, err := color.ParseWhitePoint(flagValue)
	if err != nil {
		return nil, fmt.Errorf("invalid --white-point: %w", err)
	}
	return &wp, nil
}

func run(cmd *cobra.Command, hexColor string) error {
	// Configure logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	wp, err := resolveWhitePoint(config.Load(), whitePoint)
	if err != nil {
		return err
	}

	r, g, b, err := color.ParseHexRGB(hexColor)
	if err != nil {
		return err
	}

	if wp != nil {
		cr, cg, cb := wp.Apply(r, g, b)
		fmt.Printf("Color correction: white_point = %v, RGB(%d,%d,%d) -> RGB(%d,%d,%d)\n",
			*wp, r, g, b, cr, cg, cb)
		r, g, b = cr, cg, cb
	}

	h, s, v := color.RGBToHSV(r, g, b)
	if cmd.Flags().Changed("brightness") {
		if brightness == 0 {
			log.Warn().Msg("Brightness 0 will turn the LEDs off")
		}
		v = brightness
	}

	if err := hid.Init(); err != nil {
		return fmt.Errorf("failed to initialize hidapi: %w", err)
	}
	defer func() {
		if err := hid.Exit(); err != nil {
			log.Warn().Err(err).Msg("Failed to finalize hidapi")
		}
	}()

	info, err := vialrgb.NewFinder().Find()
	if err != nil {
		return err
	}
	fmt.Printf("Found: %s %s\n", info.Manufacturer, info.Product)

	dev, err := hid.OpenPath(info)
	if err != nil {
		return fmt.Errorf("failed to open device: %w", err)
	}
	defer func() {
		if err := dev.Close(); err != nil {
			log.Warn().Err(err).Str("path", info.Path).Msg("Failed to close device")
		}
	}()

	persist := !noSave
	fmt.Printf("Setting color to #%s (HSV: %d, %d, %d)\n",
		strings.TrimPrefix(hexColor, "#"), h, s, v)

	client := vialrgb.NewClient(dev)
	if err := client.SetSolidColor(h, s, v, persist); err != nil {
		if errors.Is(err, vialrgb.ErrNotSaved) {
			// Partial success: the color is visible on the keyboard
			// but will be lost on power cycle.
			fmt.Println("Color applied, but it could not be saved to EEPROM")
		}
		return err
	}

	if persist {
		fmt.Println("Done! (saved to EEPROM)")
	} else {
		fmt.Println("Done! (not saved to EEPROM)")
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vistoria/vistoria-core/internal/application/handlers"
	"github.com/vistoria/vistoria-core/internal/domain/entities"
	"github.com/vistoria/vistoria-core/internal/domain/ports"
)

type signFlags struct {
	role      string
	name      string
	email     string
	image     string
	lat       float64
	lon       float64
	accuracy  float64
	shareGeo  bool
	userAgent string
}

func newSignCmd(g *globalFlags) *cobra.Command {
	var flags signFlags

	cmd := &cobra.Command{
		Use:   "sign <inspection-id>",
		Short: "Record a signature",
		Long: "Stores a PNG signature for the inspector or the client. Once both have signed, " +
			"the inspection becomes signed and a report can be generated.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSign(cmd, g, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.role, "role", "r", "", "Signer role (inspector, client)")
	cmd.Flags().StringVarP(&flags.name, "name", "n", "", "Signer name")
	cmd.Flags().StringVar(&flags.email, "email", "", "Signer email")
	cmd.Flags().StringVarP(&flags.image, "image", "i", "", "Path to the signature PNG")
	cmd.Flags().BoolVar(&flags.shareGeo, "share-location", false, "Consent to recording the signing location")
	cmd.Flags().Float64Var(&flags.lat, "lat", 0, "Latitude of the signing location")
	cmd.Flags().Float64Var(&flags.lon, "lon", 0, "Longitude of the signing location")
	cmd.Flags().Float64Var(&flags.accuracy, "accuracy", 0, "Location accuracy in meters")
	cmd.Flags().StringVar(&flags.userAgent, "user-agent", "vistoria-cli/"+version, "Recorded user agent")
	_ = cmd.MarkFlagRequired("role")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("image")

	return cmd
}

func runSign(cmd *cobra.Command, g *globalFlags, inspectionID string, flags signFlags) error {
	var locator ports.Geolocator
	if flags.shareGeo {
		if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
			return errors.New("--share-location requires --lat and --lon")
		}
		locator = fixedLocator{point: entities.GeoPoint{Latitude: flags.lat, Longitude: flags.lon, Accuracy: flags.accuracy}}
	}

	return withSignHandler(cmd.Context(), g, locator, func(ctx context.Context, h *handlers.SignHandler) error {
		sig, err := h.Handle(ctx, inspectionID, handlers.SignOptions{
			Role:       flags.role,
			Name:       flags.name,
			Email:      flags.email,
			ImagePath:  flags.image,
			ConsentGeo: flags.shareGeo,
			UserAgent:  flags.userAgent,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if g.jsonOut {
			return printJSON(out, sig)
		}
		fmt.Fprintf(out, "Recorded %s signature by %s at %s\n", sig.Role, sig.SignedByName, formatTime(sig.SignedAt))
		if sig.Geo != nil {
			fmt.Fprintf(out, "Location: %.6f, %.6f\n", sig.Geo.Latitude, sig.Geo.Longitude)
		}
		return nil
	})
}

// fixedLocator reports a position given on the command line.
type fixedLocator struct {
	point entities.GeoPoint
}

func (l fixedLocator) Locate(ctx context.Context) (*entities.GeoPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.point.Latitude < -90 || l.point.Latitude > 90 || l.point.Longitude < -180 || l.point.Longitude > 180 {
		return nil, fmt.Errorf("location out of range: %f, %f", l.point.Latitude, l.point.Longitude)
	}
	p := l.point
	return &p, nil
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/crosspost/internal/client"
	"github.com/crosspost/internal/status"
	"github.com/crosspost/pkg/models"
)

// ListingsCommand returns the listings command
func ListingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "listings",
		Usage: "Manage listings",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List all listings",
				Action: runListingsList,
			},
			{
				Name:      "show",
				Usage:     "Show one listing",
				ArgsUsage: "<listing-id>",
				Action:    runListingsShow,
			},
			{
				Name:  "create",
				Usage: "Create a new listing",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Listing title", Required: true},
					&cli.StringFlag{Name: "description", Usage: "Listing description", Required: true},
					&cli.Float64Flag{Name: "price", Usage: "Asking price in dollars", Required: true},
					&cli.StringFlag{Name: "condition", Usage: "Condition: new, like_new, good, or fair", Value: "good"},
					&cli.StringFlag{Name: "location", Usage: "Pickup location"},
					&cli.Float64Flag{Name: "min-price", Usage: "Lowest acceptable offer in dollars"},
					&cli.StringFlag{Name: "notes", Usage: "Private seller notes"},
					&cli.StringSliceFlag{Name: "image", Aliases: []string{"i"}, Usage: "Image file to attach (repeatable)"},
				},
				Action: runListingsCreate,
			},
			{
				Name:      "update",
				Usage:     "Update fields of a listing",
				ArgsUsage: "<listing-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "New title"},
					&cli.StringFlag{Name: "description", Usage: "New description"},
					&cli.Float64Flag{Name: "price", Usage: "New asking price in dollars"},
					&cli.StringFlag{Name: "condition", Usage: "New condition"},
					&cli.StringFlag{Name: "location", Usage: "New pickup location"},
					&cli.Float64Flag{Name: "min-price", Usage: "New negotiation floor in dollars"},
					&cli.StringFlag{Name: "notes", Usage: "New seller notes"},
				},
				Action: runListingsUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a listing",
				ArgsUsage: "<listing-id>",
				Action:    runListingsDelete,
			},
			{
				Name:      "post",
				Usage:     "Queue posting jobs for a listing",
				ArgsUsage: "<listing-id>",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "platform",
						Usage: "Target platform (repeatable); omit to post everywhere",
					},
				},
				Action: runListingsPost,
			},
		},
	}
}

func runListingsList(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	core, _ := buildClients(cfg)

	listings, err := core.ListListings(c.Context)
	if err != nil {
		return fmt.Errorf("failed to fetch listings: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPRICE\tCONDITION\tSTATUS")
	for _, l := range listings {
		fmt.Fprintf(w, "%d\t%s\t$%.2f\t%s\t%s\n",
			l.ID, l.Title, l.Price, l.Condition, l.Status)
	}
	return w.Flush()
}

func runListingsShow(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	core, _ := buildClients(cfg)

	listing, err := core.GetListing(c.Context, id)
	if err != nil {
		return fmt.Errorf("failed to fetch listing %d: %w", id, err)
	}

	fmt.Printf("#%d %s\n", listing.ID, listing.Title)
	fmt.Printf("price: $%.2f  condition: %s  status: %s\n", listing.Price, listing.Condition, listing.Status)
	if listing.MinPrice != nil {
		fmt.Printf("minimum acceptable: $%.2f\n", *listing.MinPrice)
	}
	if listing.Location != nil {
		fmt.Printf("location: %s\n", *listing.Location)
	}
	fmt.Println(listing.Description)
	for _, img := range listing.Images {
		fmt.Printf("image: %s\n", core.ImageURL(img.Filepath))
	}
	return nil
}

func runListingsCreate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	core, _ := buildClients(cfg)

	draft := client.ListingDraft{
		Title:       c.String("title"),
		Description: c.String("description"),
		Price:       c.Float64("price"),
		Condition:   c.String("condition"),
		Location:    c.String("location"),
		SellerNotes: c.String("notes"),
	}
	if c.IsSet("min-price") {
		minPrice := c.Float64("min-price")
		draft.MinPrice = &minPrice
	}

	var closers []*os.File
	defer func() {
		for _, f := range closers {
			f.Close()
		}
	}()
	for _, imgPath := range c.StringSlice("image") {
		f, err := os.Open(imgPath)
		if err != nil {
			return fmt.Errorf("failed to open image: %w", err)
		}
		closers = append(closers, f)
		draft.Images = append(draft.Images, client.ImageFile{
			Filename: filepath.Base(imgPath),
			Content:  f,
		})
	}

	listing, err := core.CreateListing(c.Context, draft)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}

	fmt.Printf("Created listing %d: %s\n", listing.ID, listing.Title)
	return nil
}

func runListingsUpdate(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	core, _ := buildClients(cfg)

	var patch client.ListingPatch
	if c.IsSet("title") {
		v := c.String("title")
		patch.Title = &v
	}
	if c.IsSet("description") {
		v := c.String("description")
		patch.Description = &v
	}
	if c.IsSet("price") {
		v := c.Float64("price")
		patch.Price = &v
	}
	if c.IsSet("condition") {
		v := c.String("condition")
		patch.Condition = &v
	}
	if c.IsSet("location") {
		v := c.String("location")
		patch.Location = &v
	}
	if c.IsSet("min-price") {
		v := c.Float64("min-price")
		patch.MinPrice = &v
	}
	if c.IsSet("notes") {
		v := c.String("notes")
		patch.SellerNotes = &v
	}

	listing, err := core.UpdateListing(c.Context, id, patch)
	if err != nil {
		return fmt.Errorf("failed to update listing %d: %w", id, err)
	}
	fmt.Printf("Updated listing %d: %s\n", listing.ID, listing.Title)
	return nil
}

func runListingsDelete(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	core, _ := buildClients(cfg)

	if err := core.DeleteListing(c.Context, id); err != nil {
		return fmt.Errorf("failed to delete listing %d: %w", id, err)
	}
	fmt.Printf("Deleted listing %d\n", id)
	return nil
}

func runListingsPost(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	core, _ := buildClients(cfg)

	platforms := models.AllPlatforms()
	if names := c.StringSlice("platform"); len(names) > 0 {
		platforms = platforms[:0]
		for _, name := range names {
			platforms = append(platforms, models.Platform(name))
		}
	}

	jobs, err := core.PostListingBatch(c.Context, id, platforms)
	if err != nil {
		return fmt.Errorf("failed to queue posting jobs: %w", err)
	}

	for _, job := range jobs {
		display := status.For(status.KindJob, job.Status)
		fmt.Printf("job %d: %s -> %s\n", job.ID, job.Platform, display.Label)
	}
	return nil
}

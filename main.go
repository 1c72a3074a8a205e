package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/carlmjohnson/versioninfo"
	"github.com/iancoleman/strcase"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"

	"github.com/pdok/xyz/gpkg"
	"github.com/pdok/xyz/processing"
	"github.com/pdok/xyz/project"
	"github.com/pdok/xyz/sieve"
	"github.com/pdok/xyz/well"
	"github.com/pdok/xyz/xyz"
	"github.com/pdok/xyz/xyzio"
)

const CONFIG string = `config`
const VERBOSE string = `verbose`
const COLUMNS string = `columns`
const POLYGONS string = `polygons`
const INFORMAT string = `informat`
const OUTFORMAT string = `outformat`
const FILTER string = `filter`
const ATTRIBUTES string = `attributes`
const GPKG string = `gpkg`
const SRS string = `srs`
const STYPE string = `stype`
const CATEGORY string = `category`
const REALISATION string = `realisation`
const REGISTER string = `register`
const OUTDIR string = `outdir`
const ZONE string = `zone`
const ZONELOG string = `zonelog`
const RESAMPLE string = `resample`
const PICKS string = `picks`
const SIEVE string = `sieve`

var log = logrus.New()

//nolint:funlen
func main() {
	app := cli.NewApp()
	app.Name = "xyz"
	app.Usage = "Convert points and polygons between xyz, zmap, rms_attr, shapefile and GeoPackage projects"
	app.Version = versioninfo.Short()

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:     CONFIG,
			Usage:    "TOML file with values for the other global flags",
			Required: false,
			EnvVars:  []string{strcase.ToScreamingSnake(CONFIG)},
		},
		altsrc.NewBoolFlag(&cli.BoolFlag{
			Name:    VERBOSE,
			Aliases: []string{"v"},
			Usage:   "Log debug messages",
			EnvVars: []string{strcase.ToScreamingSnake(VERBOSE)},
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    COLUMNS,
			Usage:   `Column bindings as JSON. E.g.: {"x":"X","y":"Y","z":"DEPTH","segment":"ID"}`,
			EnvVars: []string{strcase.ToScreamingSnake(COLUMNS)},
		}),
		altsrc.NewBoolFlag(&cli.BoolFlag{
			Name:    POLYGONS,
			Aliases: []string{"p"},
			Usage:   "Treat the data as polygons instead of points",
			EnvVars: []string{strcase.ToScreamingSnake(POLYGONS)},
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    FILTER,
			Usage:   `Keep rows by column value, as JSON. E.g.: {"WellName":["OP_1","OP_2"]}`,
			EnvVars: []string{strcase.ToScreamingSnake(FILTER)},
		}),
		altsrc.NewBoolFlag(&cli.BoolFlag{
			Name:    ATTRIBUTES,
			Aliases: []string{"a"},
			Usage:   "Carry attribute columns along",
			EnvVars: []string{strcase.ToScreamingSnake(ATTRIBUTES)},
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    GPKG,
			Aliases: []string{"g"},
			Usage:   "GeoPackage holding the project",
			EnvVars: []string{strcase.ToScreamingSnake(GPKG)},
		}),
		altsrc.NewIntFlag(&cli.IntFlag{
			Name:    SRS,
			Usage:   "SRS id of new project tables",
			Value:   -1,
			EnvVars: []string{strcase.ToScreamingSnake(SRS)},
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    STYPE,
			Usage:   "Project folder: horizons, zones, faults, clipboard or horizon_picks",
			Value:   string(project.Horizons),
			EnvVars: []string{strcase.ToScreamingSnake(STYPE)},
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    CATEGORY,
			Usage:   "Project item category",
			EnvVars: []string{strcase.ToScreamingSnake(CATEGORY)},
		}),
		altsrc.NewIntFlag(&cli.IntFlag{
			Name:    REALISATION,
			Usage:   "Project realisation",
			EnvVars: []string{strcase.ToScreamingSnake(REALISATION)},
		}),
	}
	app.Before = func(c *cli.Context) error {
		if err := altsrc.InitInputSourceWithContext(app.Flags, altsrc.NewTomlSourceFromFlagFunc(CONFIG))(c); err != nil {
			return err
		}
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		if c.Bool(VERBOSE) {
			log.SetLevel(logrus.DebugLevel)
		}
		return nil
	}

	app.Commands = []*cli.Command{
		{
			Name:      "convert",
			Usage:     "Read a file and write it in another format",
			ArgsUsage: "<in> <out>",
			Flags:     []cli.Flag{inFormatFlag(), outFormatFlag()},
			Action: func(c *cli.Context) error {
				if c.NArg() != 2 {
					return cli.Exit("convert needs <in> and <out>", 1)
				}
				data := fromFile(c, c.Args().Get(0))
				n, err := data.ToFile(c.Args().Get(1), exportOptions(c))
				if err != nil {
					return err
				}
				log.WithField("rows", n).Info("converted")
				return nil
			},
		},
		{
			Name:      "describe",
			Usage:     "Summarise a file",
			ArgsUsage: "<in>",
			Flags:     []cli.Flag{inFormatFlag()},
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return cli.Exit("describe needs <in>", 1)
				}
				return fromFile(c, c.Args().First()).Describe(os.Stdout)
			},
		},
		{
			Name:      "register",
			Usage:     "Create items in the project so they can be exported to",
			ArgsUsage: "<name>...",
			Action: func(c *cli.Context) error {
				p := openProject(c)
				defer p.Close()
				for _, name := range c.Args().Slice() {
					if err := p.Register(project.Stype(c.String(STYPE)), name, c.String(CATEGORY), c.Bool(POLYGONS)); err != nil {
						return err
					}
				}
				items, err := p.Items()
				if err != nil {
					return err
				}
				for _, item := range items {
					fmt.Printf("%s\t%s\t%s\tpolygons=%t\n", item.Stype, item.Name, item.Category, item.Polygons)
				}
				return nil
			},
		},
		{
			Name:      "export",
			Usage:     "Store a file as a project item",
			ArgsUsage: "<in> <name>",
			Flags:     []cli.Flag{inFormatFlag()},
			Action: func(c *cli.Context) error {
				if c.NArg() != 2 {
					return cli.Exit("export needs <in> and <name>", 1)
				}
				data := fromFile(c, c.Args().Get(0))
				p := openProject(c)
				defer p.Close()
				_, err := data.ToProject(p, c.Args().Get(1), c.String(CATEGORY), projectOptions(c))
				return err
			},
		},
		{
			Name:      "import",
			Usage:     "Write a project item to a file",
			ArgsUsage: "<name> <out>",
			Flags:     []cli.Flag{outFormatFlag()},
			Action: func(c *cli.Context) error {
				if c.NArg() != 2 {
					return cli.Exit("import needs <name> and <out>", 1)
				}
				p := openProject(c)
				defer p.Close()
				data := newXYZ(c)
				if err := data.FromProject(p, c.Args().Get(0), c.String(CATEGORY), projectOptions(c)); err != nil {
					return err
				}
				opts := exportOptions(c)
				opts.Filter = nil
				_, err := data.ToFile(c.Args().Get(1), opts)
				return err
			},
		},
		{
			Name:      "batch",
			Usage:     "Convert many files to a folder and/or the project",
			ArgsUsage: "<in>...",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    OUTDIR,
					Usage:   "Folder to write the converted files to",
					EnvVars: []string{strcase.ToScreamingSnake(OUTDIR)},
				},
				&cli.BoolFlag{
					Name:  REGISTER,
					Usage: "Register missing project items",
				},
				&cli.Float64Flag{
					Name:    SIEVE,
					Usage:   "Drop closed polygons with an area up to the square of this resolution",
					EnvVars: []string{strcase.ToScreamingSnake(SIEVE)},
				},
				inFormatFlag(),
				outFormatFlag(),
			},
			Action: func(c *cli.Context) error {
				source := processing.FileSource{
					Paths:    c.Args().Slice(),
					Format:   parseFormat(c.String(INFORMAT)),
					Polygons: c.Bool(POLYGONS),
					Names:    columnNames(c),
					Log:      log,
				}
				var targets []processing.Target
				if c.String(OUTDIR) != "" {
					targets = append(targets, processing.DirTarget{Dir: c.String(OUTDIR), Options: exportOptions(c), Log: log})
				}
				if c.String(GPKG) != "" {
					p := openProject(c)
					defer p.Close()
					targets = append(targets, gpkg.ProjectTarget{
						Project:     p,
						Stype:       project.Stype(c.String(STYPE)),
						Category:    c.String(CATEGORY),
						Realisation: c.Int(REALISATION),
						Attributes:  c.Bool(ATTRIBUTES),
						Register:    c.Bool(REGISTER),
						Log:         log,
					})
				}
				if len(targets) == 0 {
					return cli.Exit("batch needs --outdir and/or --gpkg", 1)
				}
				f := processing.DropEmpty
				if resolution := c.Float64(SIEVE); resolution > 0 {
					sieveFunc := sieve.Func(resolution, log)
					f = func(item processing.Item) (processing.Item, bool) {
						if item, keep := processing.DropEmpty(item); !keep {
							return item, false
						}
						return sieveFunc(item)
					}
				}
				processing.ProcessItems(source, targets, f, log)
				return nil
			},
		},
		{
			Name:      "wells",
			Usage:     "Build zone polygons, or zone picks with --picks, from RMS ascii wells",
			ArgsUsage: "<out> <well>...",
			Flags: []cli.Flag{
				&cli.Int64Flag{Name: ZONE, Usage: "Zone log value to extract", Value: 1},
				&cli.StringFlag{Name: ZONELOG, Usage: "Name of the zone log", Value: "Zonelog"},
				&cli.IntFlag{Name: RESAMPLE, Usage: "Keep every n-th sample", Value: 1},
				&cli.BoolFlag{Name: PICKS, Usage: "Write zone picks as points"},
				outFormatFlag(),
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					return cli.Exit("wells needs <out> and at least one <well>", 1)
				}
				names := columnNames(c)
				wells, err := well.ReadFiles(c.Args().Slice()[1:], well.Options{Names: names, ZoneLog: c.String(ZONELOG)})
				if err != nil {
					return err
				}
				opts := []xyz.Option{xyz.WithColumnNames(names), xyz.WithLogger(log)}
				var data xyz.XYZ
				var n int
				if c.Bool(PICKS) {
					pts := xyz.NewPoints(opts...)
					n, err = pts.FromWellPicks(wells)
					data = pts
				} else {
					pol := xyz.NewPolygons(opts...)
					n, err = pol.FromWells(wells, c.Int64(ZONE), c.Int(RESAMPLE))
					data = pol
				}
				if err != nil {
					return err
				}
				log.WithFields(logrus.Fields{"wells": len(wells), "used": n}).Info("wells read")
				out := exportOptions(c)
				out.HorizonColumn = well.ZoneColumn
				out.WellColumn = well.WellNameColumn
				_, err = data.ToFile(c.Args().First(), out)
				return err
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func inFormatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    INFORMAT,
		Aliases: []string{"i"},
		Usage:   "Input format: guess, xyz, poi, pol, zmap, rms_attr or shp",
		Value:   string(xyzio.FormatGuess),
	}
}

// outFormatFlag defaults to guessing from the output extension
func outFormatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    OUTFORMAT,
		Aliases: []string{"o"},
		Usage:   "Output format: guess, xyz, poi, pol, zmap, rms_attr, rms_wellpicks or shp",
		Value:   string(xyzio.FormatGuess),
	}
}

func columnNames(c *cli.Context) xyzio.ColumnNames {
	names := xyzio.DefaultColumnNames()
	if c.String(COLUMNS) == "" {
		return names
	}
	if err := json.Unmarshal([]byte(c.String(COLUMNS)), &names); err != nil {
		log.Fatalf("invalid --%s: %s", COLUMNS, err)
	}
	return names
}

func filter(c *cli.Context) map[string][]string {
	if c.String(FILTER) == "" {
		return nil
	}
	var f map[string][]string
	if err := json.Unmarshal([]byte(c.String(FILTER)), &f); err != nil {
		log.Fatalf("invalid --%s: %s", FILTER, err)
	}
	return f
}

func parseFormat(hint string) xyzio.Format {
	format, err := xyzio.ParseFormat(hint)
	if err != nil {
		log.Fatal(err)
	}
	return format
}

func newXYZ(c *cli.Context) xyz.XYZ {
	opts := []xyz.Option{xyz.WithColumnNames(columnNames(c)), xyz.WithLogger(log)}
	if c.Bool(POLYGONS) {
		return xyz.NewPolygons(opts...)
	}
	return xyz.NewPoints(opts...)
}

func fromFile(c *cli.Context, path string) xyz.XYZ {
	data := newXYZ(c)
	if err := data.FromFile(path, parseFormat(c.String(INFORMAT))); err != nil {
		log.Fatal(err)
	}
	return data
}

func exportOptions(c *cli.Context) xyz.ExportOptions {
	opts := xyz.ExportOptions{
		Format: parseFormat(c.String(OUTFORMAT)),
		Filter: filter(c),
	}
	if !c.Bool(ATTRIBUTES) {
		opts.Attributes = []string{}
	}
	return opts
}

func projectOptions(c *cli.Context) xyz.ProjectOptions {
	return xyz.ProjectOptions{
		Stype:       c.String(STYPE),
		Realisation: c.Int(REALISATION),
		Attributes:  c.Bool(ATTRIBUTES),
		Filter:      filter(c),
	}
}

func openProject(c *cli.Context) *gpkg.Project {
	if c.String(GPKG) == "" {
		log.Fatalf("--%s is required", GPKG)
	}
	p, err := gpkg.Open(c.String(GPKG), gpkg.Options{SRS: int32(c.Int(SRS)), Log: log})
	if err != nil {
		log.Fatalf("error opening project: %s", err)
	}
	return p
}

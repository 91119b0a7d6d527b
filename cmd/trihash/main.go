// 命令行工具：对单个坐标编码、解码哈希或导出低深度网格，便于离线排查
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"trihash/internal/coordsys"
	"trihash/internal/logger"
	"trihash/internal/trihash"
	"trihash/internal/utils"
)

func main() {
	lat := flag.Float64("lat", math.NaN(), "latitude in degrees")
	lon := flag.Float64("lon", math.NaN(), "longitude in degrees")
	depth := flag.Int("depth", trihash.Km6, "subdivision depth (0..20)")
	all := flag.Bool("all", false, "print the hash of every depth from 0")
	decode := flag.String("decode", "", "decode a hash into its cell")
	mesh := flag.Int("mesh", -1, "print the GeoJSON mesh of the given depth (0..5)")
	coord := flag.String("coord", "wgs84", "input coordinate system: wgs84, gcj02, bd09")
	asJSON := flag.Bool("json", false, "print JSON")
	flag.Parse()

	utils.LoadEnv()
	// 标准输出只留给结果，日志走 stderr
	logger.SetupWith(os.Stderr, utils.EnvString("LOG_LEVEL", "warn"), utils.EnvString("LOG_FORMAT", "text"))

	var err error
	switch {
	case *decode != "":
		err = runDecode(*decode, *asJSON)
	case *mesh >= 0:
		err = runMesh(*mesh)
	default:
		err = runEncode(*lat, *lon, *depth, *coord, *all, *asJSON)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "trihash:", err)
		os.Exit(1)
	}
}

func runEncode(lat, lon float64, depth int, coord string, all, asJSON bool) error {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		flag.Usage()
		return fmt.Errorf("-lat and -lon are required")
	}
	sys, err := coordsys.Parse(coord)
	if err != nil {
		return err
	}
	wlat, wlon := coordsys.ToWGS84(sys, lat, lon)
	hashes, err := trihash.EncodeAll(wlat, wlon, depth)
	if err != nil {
		return err
	}
	if !all {
		hashes = hashes[len(hashes)-1:]
	}
	if asJSON {
		return printJSON(map[string]any{"lat": lat, "lon": lon, "depth": depth, "hashes": hashes})
	}
	fmt.Println(strings.Join(hashes, "\n"))
	return nil
}

func runDecode(hash string, asJSON bool) error {
	c, err := trihash.Default().Cell(hash)
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(c.Feature())
	}
	fmt.Printf("%s depth=%d edge_km=%.3f center=%.6f,%.6f\n", c.Hash, c.Depth, c.EdgeKm, c.Center.Lat(), c.Center.Lon())
	for _, v := range c.Vertices {
		fmt.Printf("  %.6f,%.6f\n", v.Lat(), v.Lon())
	}
	return nil
}

func runMesh(depth int) error {
	tiles, err := trihash.Default().Mesh(depth)
	if err != nil {
		return err
	}
	return printJSON(trihash.MeshGeoJSON(tiles))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

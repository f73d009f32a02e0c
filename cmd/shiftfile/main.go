// Command shiftfile is a small driver over the shiftable byte container:
// enough to promote a plain file, inspect it, and exercise read/write/
// insert/remove from a shell without writing Go.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/govetachun/shiftfile/internal/layout"
	"github.com/govetachun/shiftfile/internal/osal"
	"github.com/govetachun/shiftfile/internal/shiftfile"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("shiftfile: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	verb, args := os.Args[1], os.Args[2:]

	var err error
	switch verb {
	case "promote":
		err = runPromote(args)
	case "stats":
		err = runStats(args)
	case "read":
		err = runRead(args)
	case "write":
		err = runWrite(args)
	case "insert":
		err = runInsert(args)
	case "remove":
		err = runRemove(args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: shiftfile <promote|stats|read|write|insert|remove> [flags] <path>")
}

func openContainer(fs *flag.FlagSet, args []string) (*shiftfile.Container, string, error) {
	blockSize := fs.Uint("block-size", layout.BlockSizeDefault, "fixed data block size B")
	disableShrink := fs.Bool("disable-shrink", false, "never shrink capacity back after a remove")
	growthNum := fs.Uint("growth-num", shiftfile.ExtraGrowthNum, "EXTRA_GROWTH ratio numerator")
	growthDen := fs.Uint("growth-den", shiftfile.ExtraGrowthDen, "EXTRA_GROWTH ratio denominator")
	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	if fs.NArg() < 1 {
		return nil, "", fmt.Errorf("missing path argument")
	}
	path := fs.Arg(0)
	c, err := shiftfile.Open(osal.NewOSFile(), path, osal.OpenExistingOrFail, uint32(*blockSize))
	if err != nil {
		return nil, "", err
	}
	c.DisableShrink(*disableShrink)
	if err := c.SetGrowthFactor(uint32(*growthNum), uint32(*growthDen)); err != nil {
		c.Close(false)
		return nil, "", err
	}
	return c, path, nil
}

func runPromote(args []string) error {
	fs := flag.NewFlagSet("promote", flag.ExitOnError)
	c, path, err := openContainer(fs, args)
	if err != nil {
		return err
	}
	defer c.Close(false)
	fmt.Printf("promoted %s: %d bytes under management\n", path, c.Size())
	return nil
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	c, path, err := openContainer(fs, args)
	if err != nil {
		return err
	}
	defer c.Close(false)
	s := c.Stats()
	fmt.Printf("%s:\n", path)
	fmt.Printf("  total_bytes      %d\n", s.TotalBytes)
	fmt.Printf("  occupied_nodes   %d\n", s.OccupiedNodes)
	fmt.Printf("  free_nodes       %d\n", s.FreeNodes)
	fmt.Printf("  tree_height      %d\n", s.TreeHeight)
	fmt.Printf("  map_size         %d\n", s.MapSize)
	fmt.Printf("  meta_data_size   %d\n", s.MetaDataSize)
	fmt.Printf("  swap_block_off   %d\n", s.SwapBlockOffset)
	return nil
}

func runRead(args []string) error {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	pos := fs.Uint("pos", 0, "absolute byte offset to start reading at")
	n := fs.Uint("n", 0, "number of bytes to read (0 = to end of file)")
	c, _, err := openContainer(fs, args)
	if err != nil {
		return err
	}
	defer c.Close(false)

	if err := c.SeekSet(uint32(*pos)); err != nil {
		return err
	}
	want := uint32(*n)
	if want == 0 {
		want = c.Size() - uint32(*pos)
	}
	buf := make([]byte, want)
	total := 0
	for total < len(buf) {
		m, err := c.Read(buf[total:])
		total += m
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	_, err = os.Stdout.Write(buf[:total])
	return err
}

func runWrite(args []string) error {
	fs := flag.NewFlagSet("write", flag.ExitOnError)
	pos := fs.Uint("pos", 0, "absolute byte offset to start writing at")
	data := fs.String("data", "", "literal bytes to write")
	c, _, err := openContainer(fs, args)
	if err != nil {
		return err
	}
	defer c.Close(false)
	if err := c.SeekSet(uint32(*pos)); err != nil {
		return err
	}
	_, err = c.Write([]byte(*data))
	return err
}

func runInsert(args []string) error {
	fs := flag.NewFlagSet("insert", flag.ExitOnError)
	pos := fs.Uint("pos", 0, "absolute byte offset to insert at")
	data := fs.String("data", "", "literal bytes to insert")
	c, _, err := openContainer(fs, args)
	if err != nil {
		return err
	}
	defer c.Close(false)
	return c.Insert(uint32(*pos), []byte(*data))
}

func runRemove(args []string) error {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	pos := fs.Uint("pos", 0, "absolute byte offset to remove from")
	n := fs.Uint("n", 0, "number of bytes to remove")
	c, _, err := openContainer(fs, args)
	if err != nil {
		return err
	}
	defer c.Close(false)
	return c.Remove(uint32(*pos), uint32(*n))
}

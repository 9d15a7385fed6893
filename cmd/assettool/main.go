// assettool inspects model files the way the viewer imports them.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Faultbox/chungus/internal/engine/importer"
	"github.com/Faultbox/chungus/internal/engine/model"
	"github.com/Faultbox/chungus/internal/engine/texture"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "tree":
		cmdTree(args)
	case "textures", "tex":
		cmdTextures(args)
	case "flags":
		cmdFlags()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`assettool - model import inspector

Usage:
  assettool <command> [options]

Commands:
  info [-pp flags] <model>      Show meshes and materials after post-processing
  tree [-pp flags] <model>      Print the node hierarchy
  textures [-pp flags] <model>  Resolve and decode every referenced texture
  flags                         List post-process flag names

Examples:
  assettool info assets/crate/crate.glb
  assettool info -pp triangulate,flip_uvs assets/crate/crate.gltf
  assettool textures assets/crate/crate.glb`)
}

// importArgs parses the shared -pp option and imports the model.
func importArgs(name string, args []string) (string, *importer.Scene) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	pp := fs.String("pp", "", "Comma separated post-process flags (default: viewer defaults)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: assettool %s [-pp flags] <model>\n", name)
		os.Exit(1)
	}

	flags := importer.DefaultFlags
	if *pp != "" {
		var err error
		flags, err = importer.ParseFlags(strings.Split(*pp, ","))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	path := fs.Arg(0)
	scene, err := importer.GLTF{}.Import(path, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return path, scene
}

func cmdInfo(args []string) {
	path, scene := importArgs("info", args)

	var vertices, indices int
	for _, m := range scene.Meshes {
		vertices += len(m.Positions)
		indices += m.IndexCount()
	}

	fmt.Printf("Model:     %s\n", path)
	fmt.Printf("Meshes:    %d\n", len(scene.Meshes))
	fmt.Printf("Materials: %d\n", len(scene.Materials))
	fmt.Printf("Vertices:  %d\n", vertices)
	fmt.Printf("Triangles: %d\n", indices/3)
	fmt.Println()

	fmt.Println("Meshes:")
	for i, m := range scene.Meshes {
		fmt.Printf("  %3d %-24s verts=%-6d faces=%-6d normals=%-5v uvs=%-5v material=%d\n",
			i, m.Name, len(m.Positions), len(m.Faces),
			len(m.Normals) > 0, len(m.TexCoords) > 0, m.Material)
	}

	fmt.Println()
	fmt.Println("Materials:")
	for i, mat := range scene.Materials {
		fmt.Printf("  %3d %s\n", i, mat.Name)
		for _, kind := range texture.Kinds {
			for n, ref := range mat.Textures[kind] {
				fmt.Printf("        %-20s %s\n", kind.SamplerName(n+1), ref)
			}
		}
	}
}

func cmdTree(args []string) {
	_, scene := importArgs("tree", args)

	depth := make(map[*importer.Node]int)
	scene.Walk(func(n *importer.Node) {
		d := depth[n]
		for _, c := range n.Children {
			depth[c] = d + 1
		}
		fmt.Printf("%s%s", strings.Repeat("  ", d), n.Name)
		if len(n.Meshes) > 0 {
			fmt.Printf(" meshes=%v", n.Meshes)
		}
		fmt.Println()
	})
}

func cmdTextures(args []string) {
	path, scene := importArgs("textures", args)

	failed := 0
	for _, tex := range model.TexturePaths(path, scene) {
		img, err := texture.FileDecoder{}.Decode(tex)
		if err != nil {
			failed++
			fmt.Printf("  FAIL %s: %v\n", tex, err)
			continue
		}
		b := img.Bounds()
		fmt.Printf("  ok   %s (%dx%d)\n", tex, b.Dx(), b.Dy())
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func cmdFlags() {
	for f := importer.Flags(1); f <= importer.OptimizeMeshes; f <<= 1 {
		marker := " "
		if importer.DefaultFlags.Has(f) {
			marker = "*"
		}
		fmt.Printf("  %s %s\n", marker, f)
	}
	fmt.Println("\n  * enabled by default")
}

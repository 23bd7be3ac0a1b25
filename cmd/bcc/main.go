// Command bcc compiles B source files to a native executable: it
// concatenates the standard library with the user's source, runs the
// lex/reorder/generate pipeline, and hands the resulting NASM text to
// an assembler and linker for the requested target format.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skx/bcc/compiler"
)

// version is the compiler's reported version string.
const version = "0.1.0"

var (
	output  string
	format  string
	keepAsm bool
	verbose bool
	libDir  string
)

var command = &cobra.Command{
	Use:   "bcc file.b [file.b ...]",
	Short: "Compile B source files to a native executable",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return exitError{err: fmt.Errorf("no input file given"), code: -100}
		}
		if verbose {
			fmt.Printf("B Compiler Version %s\n\n", version)
		}
		return run(args)
	},
}

func init() {
	command.Flags().StringVarP(&output, "output", "o", "out.exe", "name of the executable to produce")
	command.Flags().StringVarP(&format, "format", "f", hostFormat(), "target format: win32, win64, lin32, or lin64")
	command.Flags().BoolVarP(&keepAsm, "save-temps", "S", false, "keep the generated .asm file")
	command.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the compiler version")
}

func main() {
	if err := command.Execute(); err != nil {
		var perr interface{ ExitCode() int }
		if errors.As(err, &perr) {
			os.Exit(perr.ExitCode())
		}
		os.Exit(1)
	}
}

// hostFormat guesses the target triple a bare invocation should
// assemble for, from the host's own OS/architecture.
func hostFormat() string {
	bits := "32"
	if runtime.GOARCH == "amd64" || runtime.GOARCH == "arm64" {
		bits = "64"
	}
	switch runtime.GOOS {
	case "windows":
		return "win" + bits
	default:
		return "lin" + bits
	}
}

func run(files []string) error {
	switch format {
	case "win32", "win64", "lin32", "lin64":
	default:
		return exitError{err: fmt.Errorf("unknown format %q: want win32, win64, lin32, or lin64", format), code: -100}
	}

	base, ext := splitExt(output)

	src, err := gatherSource(files)
	if err != nil {
		return exitError{err: err, code: -1}
	}

	comp, err := compiler.New(src, compiler.Options{Format: format, Debug: verbose})
	if err != nil {
		return err
	}

	asm, err := comp.Compile()
	if err != nil {
		var pe *compiler.ParserError
		if errors.As(err, &pe) {
			return exitError{err: err, code: pe.Code}
		}
		return exitError{err: err, code: 1}
	}

	asmPath := base + ".asm"
	if err := os.WriteFile(asmPath, []byte(asm), 0o644); err != nil {
		return exitError{err: fmt.Errorf("writing %s: %w", asmPath, err), code: -1}
	}
	if !keepAsm {
		defer os.Remove(asmPath)
	}

	objPath, err := assemble(asmPath, base)
	if err != nil {
		return exitError{err: err, code: -1}
	}
	defer os.Remove(objPath)

	if err := link(objPath, base, ext); err != nil {
		return exitError{err: err, code: -1}
	}

	return nil
}

// gatherSource concatenates, in order: the format-specific library
// headers, the generic library headers, the user's source files, the
// generic library sources, then the format-specific library sources -
// matching the reference compiler's header-before-body,
// user-code-before-library-body ordering.
func gatherSource(files []string) (string, error) {
	libRoot := filepath.Join(libDir, "lib")
	if libDir == "" {
		exe, err := os.Executable()
		if err == nil {
			libRoot = filepath.Join(filepath.Dir(exe), "lib")
		}
	}

	var sb strings.Builder

	globs := []string{
		filepath.Join(libRoot, format, "*.h"),
		filepath.Join(libRoot, "libb", "*.h"),
	}
	for _, g := range globs {
		if err := appendGlob(&sb, g); err != nil {
			return "", err
		}
	}

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return "", fmt.Errorf("could not open input file %q: %w", f, err)
		}
		sb.Write(data)
	}

	globs = []string{
		filepath.Join(libRoot, "libb", "*.b"),
		filepath.Join(libRoot, format, "*.b"),
	}
	for _, g := range globs {
		if err := appendGlob(&sb, g); err != nil {
			return "", err
		}
	}

	return sb.String(), nil
}

func appendGlob(sb *strings.Builder, pattern string) error {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("bad library glob %q: %w", pattern, err)
	}
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			return fmt.Errorf("could not open library file %q: %w", m, err)
		}
		sb.Write(data)
	}
	return nil
}

// splitExt mimics the reference compiler's basename/extension split at
// the last '.' in the output filename.
func splitExt(name string) (base, ext string) {
	if i := strings.LastIndex(name, "."); i != -1 {
		return name[:i], name[i+1:]
	}
	return name, "exe"
}

// assemble invokes nasm against the generated .asm file, producing the
// per-format object file extension (.obj for PE targets, .o for ELF).
func assemble(asmPath, base string) (string, error) {
	var objPath, nasmFormat string
	switch format {
	case "win32":
		objPath, nasmFormat = base+".obj", "win32"
	case "win64":
		objPath, nasmFormat = base+".obj", "win64"
	case "lin32":
		objPath, nasmFormat = base+".o", "elf32"
	case "lin64":
		objPath, nasmFormat = base+".o", "elf64"
	}

	cmd := exec.Command("nasm", "-f"+nasmFormat, "-o"+objPath, asmPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("nasm failed: %w", err)
	}
	return objPath, nil
}

// link invokes the platform linker: link.exe on Windows targets, ld on
// Linux ones.
func link(objPath, base, ext string) error {
	var cmd *exec.Cmd
	switch format {
	case "win32":
		cmd = exec.Command("link", "/entry:_start", "/subsystem:console",
			"/machine:x86", "/defaultlib:kernel32.lib", objPath)
	case "win64":
		cmd = exec.Command("link", "/entry:_start", "/subsystem:console",
			"/machine:x64", "/defaultlib:kernel32.lib", objPath)
	case "lin32":
		cmd = exec.Command("ld", "-o"+base+"."+ext, "-melf_i386", objPath)
	case "lin64":
		cmd = exec.Command("ld", "-o"+base+"."+ext, "-melf_x86_64", objPath)
	}

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("link failed: %w", err)
	}
	return nil
}

// exitError carries a non-zero process exit code alongside the
// underlying compiler error, read back out by main via errors.As.
type exitError struct {
	err  error
	code int
}

func (e exitError) Error() string  { return e.err.Error() }
func (e exitError) Unwrap() error  { return e.err }
func (e exitError) ExitCode() int  { return e.code }

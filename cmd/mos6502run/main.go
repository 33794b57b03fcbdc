// Command mos6502run is the host binary for the mos6502 emulator core. It
// owns everything the core explicitly keeps out of its package boundary:
// ROM provisioning from disk, terminal I/O, and the CLI.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"golang.design/x/clipboard"
	"golang.org/x/term"

	"mos6502/internal/emulator"
	"mos6502/internal/ioterm"
	"mos6502/internal/statsview"
	"mos6502/internal/version"
)

func main() {
	var (
		romPath     = flag.String("rom", "", "path to a raw 6502 ROM image (required)")
		loadAddr    = flag.String("load-addr", "0x8000", "base address to load the ROM at (hex)")
		resetVector = flag.String("reset-vector", "", "override the RESET vector (hex); defaults to the ROM's own")
		irqVector   = flag.String("irq-vector", "", "override the IRQ/BRK vector (hex)")
		nmiVector   = flag.String("nmi-vector", "", "override the NMI vector (hex)")
		budget      = flag.Uint64("budget", 1_000_000, "maximum instructions to execute")
		interactive = flag.Bool("interactive", false, "drop into a raw-terminal console wired to the keyboard/TTY registers")
		paste       = flag.Bool("paste", false, "read the system clipboard once at startup and feed it through SendKeys")
		useStats    = flag.Bool("statsview", false, "launch the runtime stats dashboard (requires building with -tags statsview)")
		showVersion = flag.Bool("version", false, "print version information and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetBuildInfo())
		return
	}

	if *useStats {
		if !statsview.Available() {
			fmt.Fprintln(os.Stderr, "mos6502run: -statsview requested but this binary was built without -tags statsview")
		}
		statsview.Launch(os.Stdout)
	}

	if *romPath == "" {
		log.Fatal("mos6502run: -rom is required")
	}

	rom, err := os.ReadFile(*romPath)
	if err != nil {
		log.Fatalf("mos6502run: reading ROM: %v", err)
	}

	base, err := parseHex(*loadAddr)
	if err != nil {
		log.Fatalf("mos6502run: -load-addr: %v", err)
	}

	emu := emulator.New()
	if err := emu.LoadROM(rom, base); err != nil {
		log.Fatalf("mos6502run: loading ROM: %v", err)
	}

	if err := pokeVectorOverride(emu, 0xFFFC, *resetVector); err != nil {
		log.Fatalf("mos6502run: -reset-vector: %v", err)
	}
	if err := pokeVectorOverride(emu, 0xFFFE, *irqVector); err != nil {
		log.Fatalf("mos6502run: -irq-vector: %v", err)
	}
	if err := pokeVectorOverride(emu, 0xFFFA, *nmiVector); err != nil {
		log.Fatalf("mos6502run: -nmi-vector: %v", err)
	}

	emu.Boot()

	if *paste {
		pasteClipboard(emu)
	}

	if *interactive {
		runInteractive(emu)
		return
	}

	drainEvents(emu, func() {
		if err := emu.Run(*budget); err != nil {
			log.Fatalf("mos6502run: run: %v", err)
		}
	})
}

func parseHex(s string) (uint16, error) {
	v, err := strconv.ParseUint(trimHexPrefix(s), 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func pokeVectorOverride(emu *emulator.Emulator, vector uint16, hexValue string) error {
	if hexValue == "" {
		return nil
	}
	addr, err := parseHex(hexValue)
	if err != nil {
		return err
	}
	emu.Poke(vector, uint8(addr&0xFF))
	emu.Poke(vector+1, uint8(addr>>8))
	return nil
}

// pasteClipboard reads the system clipboard once and feeds it through
// SendKeys, letting a BASIC program be pasted into the console in one shot
// instead of typed key-by-key.
func pasteClipboard(emu *emulator.Emulator) {
	if clipboard.Init() != nil {
		fmt.Fprintln(os.Stderr, "mos6502run: clipboard unavailable, ignoring -paste")
		return
	}
	data := clipboard.Read(clipboard.FmtText)
	if len(data) == 0 {
		return
	}
	if err := emu.SendKeys(data); err != nil {
		fmt.Fprintf(os.Stderr, "mos6502run: paste: %v\n", err)
	}
}

// runInteractive puts the terminal in raw mode, forwards stdin byte-by-byte
// into the keyboard buffer, and prints CharOut events to stdout, turning
// the emulator into an interactive console.
func runInteractive(emu *emulator.Emulator) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		log.Fatalf("mos6502run: entering raw mode: %v", err)
	}
	defer term.Restore(fd, oldState)

	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				_ = emu.SendKeys(buf[:n])
			}
			if err != nil {
				return
			}
		}
	}()

	go func() {
		for ev := range emu.Events() {
			if ev.Kind == ioterm.CharOut {
				fmt.Print(string(rune(ev.Byte)))
			}
		}
	}()

	if err := emu.Run(^uint64(0)); err != nil {
		fmt.Fprintf(os.Stderr, "mos6502run: run: %v\n", err)
	}
}

// drainEvents runs body while printing CharOut bytes to stdout and
// reporting the ProgramHalted step count to stderr, then returns once body
// completes and the halted event has drained.
func drainEvents(emu *emulator.Emulator, body func()) {
	done := make(chan struct{})
	go func() {
		for ev := range emu.Events() {
			switch ev.Kind {
			case ioterm.CharOut:
				fmt.Print(string(rune(ev.Byte)))
			case ioterm.ProgramHalted:
				fmt.Fprintf(os.Stderr, "\nmos6502run: halted after %d steps\n", ev.N)
				close(done)
				return
			}
		}
	}()
	body()
	<-done
}

package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	flag "github.com/spf13/pflag"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash Shell = "bash"
	ShellZsh  Shell = "zsh"
	ShellFish Shell = "fish"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = errors.New("unsupported shell")

// completionMeta holds completion-specific metadata for flags.
// Flag names and descriptions come from the FlagSet.
type completionMeta struct {
	FileGlob string // file glob pattern
	IsDir    bool   // directory completion
}

// flagCompletionMeta maps flag names to their completion metadata.
var flagCompletionMeta = map[string]completionMeta{
	"config":           {FileGlob: "*.yaml,*.yml"},
	"puppeteer-config": {FileGlob: "*.json"},
	"posts":            {IsDir: true},
	"projects":         {IsDir: true},
	"output":           {IsDir: true},
	"asset-path":       {IsDir: true},
	"cache-dir":        {IsDir: true},
}

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long   string
	Short  string
	Desc   string
	IsBool bool
	Meta   completionMeta
}

// commandDef describes a command for completion.
type commandDef struct {
	Name  string
	Desc  string
	Flags []flagDef
}

// extractFlags lists the flags of fs, enriched with completion metadata.
func extractFlags(fs *flag.FlagSet) []flagDef {
	var flags []flagDef
	fs.VisitAll(func(f *flag.Flag) {
		flags = append(flags, flagDef{
			Long:   f.Name,
			Short:  f.Shorthand,
			Desc:   f.Usage,
			IsBool: f.Value.Type() == "bool",
			Meta:   flagCompletionMeta[f.Name],
		})
	})
	return flags
}

// getCommands returns the command registry for completion.
// Flags are extracted from the actual FlagSet - single source of truth.
func getCommands() []commandDef {
	site := func(name string) []flagDef {
		return extractFlags(newSiteFlagSet(name, &siteFlags{}))
	}
	return []commandDef{
		{Name: "build", Desc: "Render posts and write the site", Flags: site("build")},
		{Name: "diagrams", Desc: "Prerender mermaid diagrams into the cache", Flags: site("diagrams")},
		{Name: "watch", Desc: "Rebuild the site when content changes", Flags: site("watch")},
		{Name: "config", Desc: "Print the effective configuration", Flags: site("config")},
		{Name: "doctor", Desc: "Check diagram renderers and the cache", Flags: []flagDef{
			{Long: "json", Desc: "output JSON", IsBool: true},
			{Long: "config", Short: "c", Desc: "config file name or path", Meta: flagCompletionMeta["config"]},
		}},
		{Name: "completion", Desc: "Generate shell completion script"},
		{Name: "version", Desc: "Show version information"},
		{Name: "help", Desc: "Show help for a command"},
	}
}

// GenerateCompletion writes shell completion script to w.
// Returns error if shell is unsupported or write fails.
func GenerateCompletion(w io.Writer, shell Shell) error {
	switch shell {
	case ShellBash:
		return generateBash(w)
	case ShellZsh:
		return generateZsh(w)
	case ShellFish:
		return generateFish(w)
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish)", ErrUnsupportedShell, shell)
	}
}

// runCompletion handles the completion command.
func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}
	return GenerateCompletion(env.Stdout, Shell(args[0]))
}

func commandNames(cmds []commandDef) string {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return strings.Join(names, " ")
}

// generateBash writes a bash completion function.
func generateBash(w io.Writer) error {
	cmds := getCommands()
	var b strings.Builder

	b.WriteString("# bash completion for md2html\n")
	b.WriteString("_md2html() {\n")
	b.WriteString("    local cur prev cmd\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    cmd=\"${COMP_WORDS[1]}\"\n\n")
	b.WriteString("    if [[ ${COMP_CWORD} -eq 1 ]]; then\n")
	fmt.Fprintf(&b, "        COMPREPLY=($(compgen -W \"%s\" -- \"${cur}\"))\n", commandNames(cmds))
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")

	b.WriteString("    case \"${prev}\" in\n")
	dirFlags, fileFlags := flagPatterns(cmds)
	if len(dirFlags) > 0 {
		fmt.Fprintf(&b, "        %s)\n", strings.Join(dirFlags, "|"))
		b.WriteString("            COMPREPLY=($(compgen -d -- \"${cur}\"))\n")
		b.WriteString("            return\n")
		b.WriteString("            ;;\n")
	}
	if len(fileFlags) > 0 {
		fmt.Fprintf(&b, "        %s)\n", strings.Join(fileFlags, "|"))
		b.WriteString("            COMPREPLY=($(compgen -f -- \"${cur}\"))\n")
		b.WriteString("            return\n")
		b.WriteString("            ;;\n")
	}
	b.WriteString("    esac\n\n")

	b.WriteString("    case \"${cmd}\" in\n")
	for _, c := range cmds {
		var words []string
		for _, f := range c.Flags {
			words = append(words, "--"+f.Long)
			if f.Short != "" {
				words = append(words, "-"+f.Short)
			}
		}
		if c.Name == "completion" {
			words = []string{string(ShellBash), string(ShellZsh), string(ShellFish)}
		}
		if c.Name == "help" {
			words = strings.Fields(commandNames(cmds))
		}
		if len(words) == 0 {
			continue
		}
		fmt.Fprintf(&b, "        %s)\n", c.Name)
		fmt.Fprintf(&b, "            COMPREPLY=($(compgen -W \"%s\" -- \"${cur}\"))\n", strings.Join(words, " "))
		b.WriteString("            ;;\n")
	}
	b.WriteString("    esac\n")
	b.WriteString("}\n")
	b.WriteString("complete -o default -F _md2html md2html\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// flagPatterns returns the bash case patterns of directory and file flags.
func flagPatterns(cmds []commandDef) (dirs, files []string) {
	seenDir, seenFile := map[string]bool{}, map[string]bool{}
	for _, c := range cmds {
		for _, f := range c.Flags {
			target, seen := &files, seenFile
			switch {
			case f.Meta.IsDir:
				target, seen = &dirs, seenDir
			case f.Meta.FileGlob == "":
				continue
			}
			for _, name := range flagSpellings(f) {
				if !seen[name] {
					seen[name] = true
					*target = append(*target, name)
				}
			}
		}
	}
	sort.Strings(dirs)
	sort.Strings(files)
	return dirs, files
}

func flagSpellings(f flagDef) []string {
	out := []string{"--" + f.Long}
	if f.Short != "" {
		out = append(out, "-"+f.Short)
	}
	return out
}

// generateZsh writes a zsh completion function.
func generateZsh(w io.Writer) error {
	cmds := getCommands()
	var b strings.Builder

	b.WriteString("#compdef md2html\n\n")
	b.WriteString("_md2html() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.Name, zshEscape(c.Desc))
	}
	b.WriteString("    )\n\n")
	b.WriteString("    if (( CURRENT == 2 )); then\n")
	b.WriteString("        _describe 'command' commands\n")
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    case \"${words[2]}\" in\n")
	for _, c := range cmds {
		if len(c.Flags) == 0 {
			continue
		}
		fmt.Fprintf(&b, "        %s)\n", c.Name)
		b.WriteString("            _arguments \\\n")
		for _, f := range c.Flags {
			fmt.Fprintf(&b, "                '--%s[%s]%s' \\\n", f.Long, zshEscape(f.Desc), zshAction(f))
		}
		b.WriteString("                '*:directory:_files -/'\n")
		b.WriteString("            ;;\n")
	}
	b.WriteString("        completion)\n")
	fmt.Fprintf(&b, "            _values 'shell' %s %s %s\n", ShellBash, ShellZsh, ShellFish)
	b.WriteString("            ;;\n")
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("compdef _md2html md2html\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func zshAction(f flagDef) string {
	switch {
	case f.IsBool:
		return ""
	case f.Meta.IsDir:
		return ":directory:_files -/"
	case f.Meta.FileGlob != "":
		globs := strings.Split(f.Meta.FileGlob, ",")
		return fmt.Sprintf(":file:_files -g \"%s\"", strings.Join(globs, " "))
	default:
		return ":value:"
	}
}

func zshEscape(s string) string {
	r := strings.NewReplacer("'", "'\\''", "[", "\\[", "]", "\\]", ":", "\\:")
	return r.Replace(s)
}

// generateFish writes fish completions.
func generateFish(w io.Writer) error {
	cmds := getCommands()
	var b strings.Builder

	b.WriteString("# fish completion for md2html\n")
	b.WriteString("complete -c md2html -f\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "complete -c md2html -n '__fish_use_subcommand' -a %s -d '%s'\n", c.Name, fishEscape(c.Desc))
	}
	for _, c := range cmds {
		for _, f := range c.Flags {
			fmt.Fprintf(&b, "complete -c md2html -n '__fish_seen_subcommand_from %s' -l %s", c.Name, f.Long)
			if f.Short != "" {
				fmt.Fprintf(&b, " -s %s", f.Short)
			}
			switch {
			case f.IsBool:
			case f.Meta.IsDir:
				b.WriteString(" -r -a '(__fish_complete_directories)'")
			case f.Meta.FileGlob != "":
				b.WriteString(" -r -F")
			default:
				b.WriteString(" -r")
			}
			fmt.Fprintf(&b, " -d '%s'\n", fishEscape(f.Desc))
		}
	}
	fmt.Fprintf(&b, "complete -c md2html -n '__fish_seen_subcommand_from completion' -a '%s %s %s'\n", ShellBash, ShellZsh, ShellFish)

	_, err := io.WriteString(w, b.String())
	return err
}

func fishEscape(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2html completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate shell completion script for the specified shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells:")
	fmt.Fprintln(w, "  bash        Bash completion script")
	fmt.Fprintln(w, "  zsh         Zsh completion script")
	fmt.Fprintln(w, "  fish        Fish completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Bash:")
	fmt.Fprintln(w, "    # Add to ~/.bashrc:")
	fmt.Fprintln(w, "    eval \"$(md2html completion bash)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Zsh:")
	fmt.Fprintln(w, "    # Add to ~/.zshrc (before compinit):")
	fmt.Fprintln(w, "    eval \"$(md2html completion zsh)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Fish:")
	fmt.Fprintln(w, "    md2html completion fish > ~/.config/fish/completions/md2html.fish")
}

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/staranto/ghtctlgo/internal/meta"
	"github.com/staranto/ghtctlgo/internal/output"
	"github.com/urfave/cli/v3"
)

const bashCompletionScript = `# bash completion for ghtctl
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_ghtctl()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "fetch report tq mq rq oq status purge completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
  local common="--attrs -a --color -c --filter -f --output -o --sort -s --titles -t --tldr"

    # Determine if an optional RootDir (first non-flag after subcommand) has already been provided
    local have_rootdir=0
    local idx=2
    while [[ $idx -lt ${#COMP_WORDS[@]} ]]; do
        local w=${COMP_WORDS[$idx]}
        if [[ $w != -* ]]; then
            have_rootdir=1
            break
        fi
        ((idx++))
    done

    case "$cmd" in
    fetch)
      local opts="--force --retries --teams-only --host --org --ttl --tldr"
            ;;
        report)
      local opts="--mirror --out --org --tldr"
            ;;
        tq)
      local opts="$common --schema --diff --org"
            ;;
        mq)
      local opts="$common --schema --diff --humans --team --org"
            ;;
        rq)
      local opts="$common --schema --org"
            ;;
        oq)
      local opts="$common --schema"
            ;;
        status)
      local opts="$common --schema --usage --org --ttl"
            ;;
        purge)
      local opts="--archives --hours --org --tldr"
            ;;
        completion)
            local opts="bash zsh"
            COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    if [[ "$prev" == "--output" || "$prev" == "-o" ]]; then
        COMPREPLY=( $(compgen -W "text json raw yaml" -- "$cur") )
        return 0
    fi

  # If current token starts with '-', or we've already consumed RootDir, offer flags
  if [[ "$cur" == -* || $have_rootdir -eq 1 ]]; then
    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
  fi

  # Otherwise, we're on the (optional) RootDir positional - complete directories
  COMPREPLY=( $(compgen -o dirnames -- "$cur") )
  return 0
}

complete -F _ghtctl ghtctl
`

const zshCompletionScript = `#compdef ghtctl

_ghtctl() {
  local -a cmds
  cmds=(
    'fetch:refresh the local team and member cache'
    'report:render the member/team reports from the cache'
    'tq:team query'
    'mq:member query'
    'rq:role query'
    'oq:org inventory query'
    'status:cache metadata report'
    'purge:evict stale snapshots and old report archives'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
  '(-a --attrs)'{-a,--attrs}'[attributes to include]:attrs'
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-f --filter)'{-f,--filter}'[filters to apply]:filters'
  '(-o --output)'{-o,--output}'[output format]:format:(text json raw yaml)'
  '(-s --sort)'{-s,--sort}'[sort attributes]:attrs'
  '(-t --titles)'{-t,--titles}'[show titles]'
  '--tldr[show tldr page]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'ghtctl commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    fetch)
      _arguments -C \
        '--force[refetch even when fresh]' \
        '--retries[retry attempts]:retries' \
        '--teams-only[skip member and role fetches]' \
        '--host[GitHub host]:host' \
        '--org[organization]:org' \
        '--ttl[cache TTL in hours]:hours' \
        '--tldr[show tldr page]' \
        '::RootDir:_directories'
      ;;
    report)
      _arguments -C \
        '--mirror[push reports to S3]' \
        '--out[reports output dir]:dir:_directories' \
        '--org[organization]:org' \
        '--tldr[show tldr page]' \
        '::RootDir:_directories'
      ;;
    tq)
      _arguments -C \
        $common \
        '--schema[dump schema]' \
        '--diff[diff against previous fetch]' \
        '--org[organization]:org' \
        '::RootDir:_directories'
      ;;
    mq)
      _arguments -C \
        $common \
        '--schema[dump schema]' \
        '--diff[diff against previous fetch]' \
        '--humans[only human accounts]' \
        '--team[team slug]:team' \
        '--org[organization]:org' \
        '::RootDir:_directories'
      ;;
    rq)
      _arguments -C \
        $common \
        '--schema[dump schema]' \
        '--org[organization]:org' \
        '::RootDir:_directories'
      ;;
    oq)
      _arguments -C \
        $common \
        '--schema[dump schema]' \
        '::RootDir:_directories'
      ;;
    status)
      _arguments -C \
        $common \
        '--schema[dump schema]' \
        '--usage[show API usage history]' \
        '--org[organization]:org' \
        '--ttl[cache TTL in hours]:hours' \
        '::RootDir:_directories'
      ;;
    purge)
      _arguments -C \
        '--archives[keep N newest archives]:count' \
        '--hours[evict entries older than]:hours' \
        '--org[organization]:org' \
        '--tldr[show tldr page]' \
        '::RootDir:_directories'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common '*:directory:_directories'
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _ghtctl ghtctl ghtctlgo
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	// The RootDir positional may have been injected ahead of the shell
	// name, so scan rather than take args[0].
	shell := ""
	for _, arg := range cmd.Args().Slice() {
		if arg == "bash" || arg == "zsh" {
			shell = arg
			break
		}
	}
	switch shell {
	case "bash":
		fmt.Fprint(os.Stdout, bashCompletionScript)
	case "zsh":
		fmt.Fprint(os.Stdout, zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		if strings.HasSuffix(sh, "zsh") {
			fmt.Fprint(os.Stdout, zshCompletionScript)
		} else if strings.HasSuffix(sh, "bash") {
			fmt.Fprint(os.Stdout, bashCompletionScript)
		} else {
			fmt.Fprintln(os.Stderr, "usage: ghtctl completion [bash|zsh]")
			output.DumpExamples(ctx, cmd, [][2]string{
				{"source <(ghtctl completion bash)", "load into the current bash session"},
				{`ghtctl completion zsh > "${fpath[1]}/_ghtctl"`, "install for zsh"},
			})
			return nil
		}
	}
	return nil
}

func CompletionCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "ghtctl completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}

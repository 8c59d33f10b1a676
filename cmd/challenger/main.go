// =============================================================================
// challenger 主入口
// =============================================================================
// 打开目标页面、点击复选框并求解挑战，成功令牌以 JSON 行写到标准输出。
//
// 使用方法:
//
//	challenger solve --url https://example.com/login        # 单会话
//	challenger solve --url ... --sessions 4                 # 并发会话
//	challenger solve --config config.yaml --url ...         # 指定配置文件
//	challenger version                                      # 显示版本信息
// =============================================================================

package main

import (
	"fmt"
	"os"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "solve":
		os.Exit(runSolve(os.Args[2:]))
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("challenger %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`challenger - checkbox challenge solving agent

Usage:
  challenger <command> [options]

Commands:
  solve     Open a page and solve its challenge
  version   Show version information
  help      Show this help message

Options for 'solve':
  --config <path>     Path to config file
  --url <url>         Page hosting the challenge widget (required)
  --sessions <n>      Number of concurrent sessions (default: 1)

Environment:
  CHALLENGER_GEMINI_API_KEY, CHALLENGER_CACHE_ENABLED, CHALLENGER_LOG_LEVEL, ...`)
}

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nickyhof/DocDB"
	"github.com/nickyhof/DocDB/db"
	"github.com/nickyhof/DocDB/pool"
	"github.com/nickyhof/DocDB/ps"
)

const (
	PromptColor  = "\033[36m" // Cyan
	ErrorColor   = "\033[31m" // Red
	SuccessColor = "\033[32m" // Green
	ResetColor   = "\033[0m"
	BoldColor    = "\033[1m"
)

// Version is set at build time via -ldflags
var Version = "dev"

// CLI holds the CLI state
type CLI struct {
	instance    *DocDB.Instance
	conn        *pool.Conn
	backup      *ps.BackupConfig
	logger      *slog.Logger
	history     []string
	historyFile string
}

func main() {
	configFile := flag.String("config", "", "Path to a YAML configuration file")
	path := flag.String("path", "", "Path of the backing document file")
	sqlFile := flag.String("sqlFile", "", "SQL file to execute (non-interactive)")
	withHistory := flag.Bool("history", false, "Record every saved revision")
	logLevel := flag.String("logLevel", "", "Log level: debug, info, warn, error")
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Printf("%sError: %v%s\n", ErrorColor, err, ResetColor)
		os.Exit(1)
	}
	if *path != "" {
		cfg.Path = *path
	}
	if *withHistory {
		cfg.History = true
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger := setupLogger(cfg.LogLevel)

	printBanner()

	var store *ps.Store
	if cfg.Path == "" {
		fmt.Printf("%sUsing memory store%s\n", SuccessColor, ResetColor)
		store, err = ps.NewMemoryStore()
	} else {
		fmt.Printf("%sUsing file store: %s%s\n", SuccessColor, cfg.Path, ResetColor)
		store, err = ps.NewFileStore(cfg.Path)
	}
	if err != nil {
		fmt.Printf("%sError: %v%s\n", ErrorColor, err, ResetColor)
		os.Exit(1)
	}

	if cfg.History {
		if err := store.EnableHistory(); err != nil {
			fmt.Printf("%sError: %v%s\n", ErrorColor, err, ResetColor)
			os.Exit(1)
		}
		logger.Info("revision history enabled")
	}

	instance := DocDB.Open(store)
	instance.Pool.Engine.Aliases = cfg.Aliases
	instance.Pool.Engine.MonotonicIDs = cfg.MonotonicIDs

	cli := &CLI{
		instance:    instance,
		conn:        instance.Pool.Acquire(),
		backup:      cfg.backupConfig(),
		logger:      logger,
		history:     make([]string, 0),
		historyFile: getHistoryPath(),
	}

	cli.loadHistory()

	// Execute SQL file if provided
	if *sqlFile != "" {
		if err := cli.importFile(*sqlFile); err != nil {
			fmt.Printf("%sError importing file: %v%s\n", ErrorColor, err, ResetColor)
			os.Exit(1)
		}
		return
	}

	cli.run()
}

func printBanner() {
	fmt.Println()
	bannerWidth := 39 // inner width of the banner box
	versionLine := fmt.Sprintf("DocDB v%s", Version)
	padding := bannerWidth - len(versionLine) - 2 // -2 for "  " margins
	if padding < 0 {
		padding = 0
	}
	leftPad := padding / 2
	rightPad := padding - leftPad

	fmt.Printf("%s%s╔═══════════════════════════════════════╗%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Printf("%s%s║ %*s%s%*s ║%s\n", BoldColor, PromptColor, leftPad, "", versionLine, rightPad, "", ResetColor)
	fmt.Printf("%s%s║   Single-file SQL Document Store      ║%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Printf("%s%s╚═══════════════════════════════════════╝%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Println()
	fmt.Println("Type .help for commands, .quit to exit")
	fmt.Println()
}

func (cli *CLI) run() {
	reader := bufio.NewReader(os.Stdin)
	var multiLineBuffer strings.Builder

	for {
		prompt := cli.getPrompt(multiLineBuffer.Len() > 0)
		fmt.Print(prompt)

		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Printf("\n%sGoodbye!%s\n", SuccessColor, ResetColor)
			return
		}

		input = strings.TrimSuffix(input, "\n")
		input = strings.TrimSuffix(input, "\r")

		if strings.TrimSpace(input) == "" {
			continue
		}

		// Check for special commands (only when not in multi-line mode)
		if multiLineBuffer.Len() == 0 && strings.HasPrefix(input, ".") {
			if cli.handleCommand(input) {
				continue
			}
		}

		// Multi-line support: accumulate until we see a semicolon
		multiLineBuffer.WriteString(input)

		trimmed := strings.TrimSpace(multiLineBuffer.String())
		if !strings.HasSuffix(trimmed, ";") {
			multiLineBuffer.WriteString(" ")
			continue
		}

		statement := strings.TrimSuffix(trimmed, ";")
		multiLineBuffer.Reset()

		if strings.TrimSpace(statement) == "" {
			continue
		}

		cli.addToHistory(statement + ";")
		cli.execute(statement)
	}
}

// execute runs one statement, with optional parameters after a `|`
// separator: SELECT * FROM users WHERE name = ? | Alice
func (cli *CLI) execute(input string) {
	statement, params := splitParams(input)

	result, err := cli.conn.Exec(statement, params...)
	if err != nil {
		fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		return
	}
	result.Display()
}

// splitParams separates the statement from its bound parameters. All
// parameters arrive as strings; record matching compares canonical
// string forms, so that is enough for interactive use.
func splitParams(input string) (string, []any) {
	statement, rest, found := strings.Cut(input, "|")
	if !found {
		return input, nil
	}

	var params []any
	for _, part := range strings.Split(rest, ",") {
		params = append(params, strings.TrimSpace(part))
	}
	return strings.TrimSpace(statement), params
}

func (cli *CLI) getPrompt(multiLine bool) string {
	if multiLine {
		return fmt.Sprintf("%s   ...>%s ", PromptColor, ResetColor)
	}

	txnPart := ""
	if cli.conn.InTransaction() {
		txnPart = " (txn)"
	}

	return fmt.Sprintf("%sdocdb%s>%s ", PromptColor, txnPart, ResetColor)
}

func (cli *CLI) handleCommand(input string) bool {
	parts := strings.Fields(strings.TrimSpace(input))
	if len(parts) == 0 {
		return true
	}

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit", ".q":
		fmt.Printf("%sGoodbye!%s\n", SuccessColor, ResetColor)
		cli.saveHistory()
		os.Exit(0)

	case ".help", ".h", ".?":
		cli.printHelp()

	case ".tables":
		cli.showTables()

	case ".begin":
		if err := cli.conn.Begin(); err != nil {
			fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		} else {
			fmt.Printf("%s✓ Transaction started%s\n", SuccessColor, ResetColor)
		}

	case ".commit":
		if err := cli.conn.Commit(); err != nil {
			fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		} else {
			fmt.Printf("%s✓ Transaction committed%s\n", SuccessColor, ResetColor)
		}

	case ".rollback":
		if err := cli.conn.Rollback(); err != nil {
			fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		} else {
			fmt.Printf("%s✓ Transaction rolled back%s\n", SuccessColor, ResetColor)
		}

	case ".backup":
		if len(parts) > 1 {
			cli.runBackup(parts[1])
		} else {
			fmt.Printf("%s✗ Usage: .backup <url>%s\n", ErrorColor, ResetColor)
		}

	case ".restore":
		if len(parts) > 1 {
			cli.runRestore(parts[1])
		} else {
			fmt.Printf("%s✗ Usage: .restore <url | revision id>%s\n", ErrorColor, ResetColor)
		}

	case ".revisions":
		cli.showRevisions()

	case ".clear", ".cls":
		fmt.Print("\033[H\033[2J")

	case ".history":
		cli.printHistory()

	case ".version":
		fmt.Printf("DocDB version %s\n", Version)

	case ".import":
		if len(parts) > 1 {
			if err := cli.importFile(parts[1]); err != nil {
				fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
			}
		} else {
			fmt.Printf("%s✗ Usage: .import <file.sql>%s\n", ErrorColor, ResetColor)
		}

	default:
		fmt.Printf("%s✗ Unknown command: %s (type .help for commands)%s\n", ErrorColor, parts[0], ResetColor)
	}

	return true
}

func (cli *CLI) printHelp() {
	fmt.Println()
	fmt.Printf("%s%sSpecial Commands:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Println("  .help, .h        Show this help message")
	fmt.Println("  .quit, .exit     Exit the CLI")
	fmt.Println("  .tables          List tables in the document")
	fmt.Println("  .begin           Start a transaction")
	fmt.Println("  .commit          Commit the open transaction")
	fmt.Println("  .rollback        Roll back the open transaction")
	fmt.Println("  .backup <url>    Back up the document (s3://, file://, path)")
	fmt.Println("  .restore <src>   Restore from a backup URL or revision id")
	fmt.Println("  .revisions       List recorded revisions")
	fmt.Println("  .import <file>   Execute SQL statements from a file")
	fmt.Println("  .history         Show command history")
	fmt.Println("  .clear           Clear the screen")
	fmt.Println("  .version         Show version info")
	fmt.Println()
	fmt.Printf("%s%sSQL Commands:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Println("  CREATE TABLE [IF NOT EXISTS] <table> (...);")
	fmt.Println("  INSERT INTO <table> (<cols>) VALUES (?, ...) | <params>;")
	fmt.Println("  SELECT <cols> FROM <table> [WHERE ...] [ORDER BY ...] [LIMIT n] [OFFSET n];")
	fmt.Println("  SELECT COUNT(*) FROM <table> [WHERE ...];")
	fmt.Println("  UPDATE <table> SET <col> = ? [WHERE ...] | <params>;")
	fmt.Println("  DELETE FROM <table> WHERE ... | <params>;")
	fmt.Println()
	fmt.Printf("%s%sPredicates:%s field = ?, field = true|false, field > NOW(), field < NOW()\n", BoldColor, PromptColor, ResetColor)
	fmt.Printf("%s%sParameters:%s append after | separated by commas\n", BoldColor, PromptColor, ResetColor)
	fmt.Println()
}

func (cli *CLI) showTables() {
	document := cli.instance.Store.Document()

	names := make([]string, 0, len(document.Tables))
	for name := range document.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	table := db.NewTable(os.Stdout)
	table.Header([]string{"table", "records"})
	for _, name := range names {
		table.Row([]string{name, fmt.Sprintf("%d", len(document.Tables[name]))})
	}
	table.Render()
}

func (cli *CLI) runBackup(url string) {
	if err := cli.instance.Store.Backup(context.Background(), url, cli.backup); err != nil {
		fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		return
	}
	fmt.Printf("%s✓ Backup written to %s%s\n", SuccessColor, url, ResetColor)
}

func (cli *CLI) runRestore(source string) {
	// A 40-char hex string names a recorded revision, anything else is
	// treated as a backup URL.
	var err error
	if len(source) == 40 && !strings.Contains(source, "/") {
		err = cli.instance.Store.RestoreRevision(source)
	} else {
		err = cli.instance.Store.RestoreBackup(context.Background(), source, cli.backup)
	}
	if err != nil {
		fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		return
	}
	fmt.Printf("%s✓ Restored from %s%s\n", SuccessColor, source, ResetColor)
}

func (cli *CLI) showRevisions() {
	revisions, err := cli.instance.Store.Revisions()
	if err != nil {
		fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		return
	}
	if len(revisions) == 0 {
		fmt.Println("No revisions recorded")
		return
	}

	table := db.NewTable(os.Stdout)
	table.Header([]string{"revision", "when"})
	for _, revision := range revisions {
		table.Row([]string{revision.Id, revision.When.Format("2006-01-02 15:04:05")})
	}
	table.Render()
}

func (cli *CLI) addToHistory(cmd string) {
	// Don't add duplicates of the last command
	if len(cli.history) > 0 && cli.history[len(cli.history)-1] == cmd {
		return
	}
	cli.history = append(cli.history, cmd)

	// Limit history size
	if len(cli.history) > 1000 {
		cli.history = cli.history[len(cli.history)-1000:]
	}
}

func (cli *CLI) printHistory() {
	if len(cli.history) == 0 {
		fmt.Println("No command history")
		return
	}

	start := 0
	if len(cli.history) > 20 {
		start = len(cli.history) - 20
	}

	for i := start; i < len(cli.history); i++ {
		fmt.Printf("  %3d  %s\n", i+1, cli.history[i])
	}
}

func getHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".docdb_history")
}

func (cli *CLI) loadHistory() {
	if cli.historyFile == "" {
		return
	}

	file, err := os.Open(cli.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		cli.history = append(cli.history, scanner.Text())
	}
}

func (cli *CLI) saveHistory() {
	if cli.historyFile == "" {
		return
	}

	file, err := os.Create(cli.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	// Save last 1000 entries
	start := 0
	if len(cli.history) > 1000 {
		start = len(cli.history) - 1000
	}

	for i := start; i < len(cli.history); i++ {
		_, _ = file.WriteString(cli.history[i] + "\n")
	}
}

// importFile reads and executes SQL statements from a file
func (cli *CLI) importFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	statements := splitStatements(string(data))

	successCount := 0
	errorCount := 0

	for i, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" || strings.HasPrefix(stmt, "--") {
			continue
		}

		statement, params := splitParams(stmt)
		result, err := cli.conn.Exec(statement, params...)
		if err != nil {
			fmt.Printf("%s[%d] ✗ %s%s\n", ErrorColor, i+1, truncate(stmt, 50), ResetColor)
			fmt.Printf("      Error: %v\n", err)
			errorCount++
			continue
		}

		successCount++
		switch r := result.(type) {
		case db.CommitResult:
			var details []string
			if r.NewID != "" {
				details = append(details, "id "+r.NewID)
			}
			details = append(details, fmt.Sprintf("%d affected, %d changed", r.Affected, r.Changed))
			fmt.Printf("%s[%d] ✓ %s (%s)%s\n", SuccessColor, i+1, truncate(stmt, 50),
				strings.Join(details, ", "), ResetColor)
		case db.QueryResult:
			fmt.Printf("%s[%d] ✓ %s (%d rows)%s\n", SuccessColor, i+1, truncate(stmt, 50), len(r.Rows), ResetColor)
		default:
			fmt.Printf("%s[%d] ✓ %s%s\n", SuccessColor, i+1, truncate(stmt, 50), ResetColor)
		}
	}

	fmt.Printf("\n%s✓ Import complete: %d succeeded, %d failed%s\n",
		SuccessColor, successCount, errorCount, ResetColor)

	return nil
}

// splitStatements splits SQL content into individual statements
func splitStatements(content string) []string {
	var statements []string
	var current strings.Builder
	inString := false
	stringChar := byte(0)

	for i := 0; i < len(content); i++ {
		ch := content[i]

		// Handle string literals
		if (ch == '\'' || ch == '"') && (i == 0 || content[i-1] != '\\') {
			if !inString {
				inString = true
				stringChar = ch
			} else if ch == stringChar {
				inString = false
			}
		}

		// Handle comments
		if !inString && ch == '-' && i+1 < len(content) && content[i+1] == '-' {
			// Skip to end of line
			for i < len(content) && content[i] != '\n' {
				i++
			}
			continue
		}

		// Statement separator
		if !inString && ch == ';' {
			stmt := strings.TrimSpace(current.String())
			if stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
			continue
		}

		current.WriteByte(ch)
	}

	// Handle last statement without semicolon
	stmt := strings.TrimSpace(current.String())
	if stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}

// truncate shortens a string to max length with ellipsis
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

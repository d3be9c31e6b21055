package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/spf13/cobra"

	"github.com/teranos/taxa/am"
	"github.com/teranos/taxa/db"
	"github.com/teranos/taxa/display"
	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/logger"
	"github.com/teranos/taxa/sym"
)

// DBStats is the output of 'taxa db stats'
type DBStats struct {
	Path     string         `json:"path"`
	Metadata db.Metadata    `json:"metadata"`
	Counts   db.Stats       `json:"counts"`
	Memory   *MemoryStats   `json:"memory,omitempty"`
	Ranks    map[string]int `json:"ranks,omitempty"`
}

// MemoryStats is the footprint of the loaded engine
type MemoryStats struct {
	ProcessRSSBytes      uint64 `json:"process_rss_bytes"`
	SystemAvailableBytes uint64 `json:"system_available_bytes"`
	SystemTotalBytes     uint64 `json:"system_total_bytes"`
}

func newDbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: sym.DB + " Inspect the snapshot cache",
		Long: sym.DB + ` db - Inspect the snapshot cache

Examples:
  taxa db stats                   # Row counts, size and provenance
  taxa db stats --memory          # Also load the engine and report its memory use
  taxa db stats --ranks           # Taxa per rank
  taxa db stats --json            # Machine readable`,
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show snapshot cache statistics",
		Args:  cobra.NoArgs,
		RunE:  runDbStats,
	}
	statsCmd.Flags().Bool("memory", false, "Load the engine and report process memory")
	statsCmd.Flags().Bool("ranks", false, "Load the engine and count taxa per rank")
	statsCmd.Flags().Bool("json", false, "Output as JSON")

	cmd.AddCommand(statsCmd)
	return cmd
}

func runDbStats(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	path := databasePath(cmd, cfg)
	if _, err := os.Stat(path); err != nil {
		return errors.WithHint(
			errors.Wrapf(db.ErrEmptyCache, "no cache at %s", path),
			"run 'taxa taxonomy set' to download NCBI taxonomy and build it",
		)
	}

	conn, err := db.Open(path, logger.AddDBSymbol(logger.ComponentLogger("db")))
	if err != nil {
		return err
	}
	defer conn.Close()

	stats := DBStats{Path: path}
	if stats.Metadata, err = db.ReadMetadata(cmd.Context(), conn); err != nil {
		return err
	}
	if stats.Counts, err = db.ReadStats(cmd.Context(), conn); err != nil {
		return err
	}

	withMemory, _ := cmd.Flags().GetBool("memory")
	withRanks, _ := cmd.Flags().GetBool("ranks")
	if withMemory || withRanks {
		e, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		logger.DBDebugw("Engine loaded for stats", "records", e.Store().Len())
		if withRanks {
			stats.Ranks = e.Store().Ranks()
		}
		if withMemory {
			if stats.Memory, err = memoryStats(); err != nil {
				return err
			}
		}
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(stats)
	}

	out := display.Stdout
	fmt.Fprintf(out, "%s Snapshot Cache\n", sym.DB)
	fmt.Fprintf(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")
	fmt.Fprintf(out, "Path:           %s\n", stats.Path)
	fmt.Fprintf(out, "Source:         %s\n", stats.Metadata.SourceURL)
	fmt.Fprintf(out, "Built:          %s\n", stats.Metadata.BuiltAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "Schema:         %s\n", stats.Metadata.SchemaVersion)
	fmt.Fprintf(out, "Size:           %s\n", humanBytes(uint64(stats.Counts.SizeBytes)))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Taxa:           %d\n", stats.Counts.Taxa)
	fmt.Fprintf(out, "Merged taxids:  %d\n", stats.Counts.Merged)
	fmt.Fprintf(out, "Deleted taxids: %d\n", stats.Counts.Deleted)
	if m := stats.Memory; m != nil {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Process RSS:    %s\n", humanBytes(m.ProcessRSSBytes))
		fmt.Fprintf(out, "System memory:  %s available of %s\n",
			humanBytes(m.SystemAvailableBytes), humanBytes(m.SystemTotalBytes))
	}
	if len(stats.Ranks) > 0 {
		ranks := make([]string, 0, len(stats.Ranks))
		for rank := range stats.Ranks {
			ranks = append(ranks, rank)
		}
		sort.Slice(ranks, func(i, j int) bool {
			if stats.Ranks[ranks[i]] != stats.Ranks[ranks[j]] {
				return stats.Ranks[ranks[i]] > stats.Ranks[ranks[j]]
			}
			return ranks[i] < ranks[j]
		})
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Taxa per rank:")
		for _, rank := range ranks {
			fmt.Fprintf(out, "  %-16s %d\n", rank, stats.Ranks[rank])
		}
	}
	return nil
}

func memoryStats() (*MemoryStats, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to inspect own process")
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get process memory")
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get memory stats")
	}
	return &MemoryStats{
		ProcessRSSBytes:      info.RSS,
		SystemAvailableBytes: vm.Available,
		SystemTotalBytes:     vm.Total,
	}, nil
}

func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

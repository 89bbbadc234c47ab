package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/dpw/go-genl/config"
	"github.com/dpw/go-genl/genl"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
)

var cmdRoot = &cobra.Command{
	Use:           "genl",
	Short:         "Generic netlink family resolution and nl80211 queries",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var cmdFamily = &cobra.Command{
	Use:   "family [NAME]",
	Short: "Describe a generic netlink family, or list them all",
	Long: `Describe a generic netlink family, or list them all when no name is given.

Family descriptions are parsed strictly.  The kernel leaves out the
operation and multicast group lists of families that have none, so a
listing stops with a missing attribute error at the first such family.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFamily,
}

var cmdIface = &cobra.Command{
	Use:   "iface [IFNAME|IFINDEX]",
	Short: "Describe a wireless interface through nl80211",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIface,
}

func init() {
	cmdRoot.PersistentFlags().StringVarP(&configFile, "config", "c", "", "configuration file")
	cmdRoot.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides the configuration file)")
	cmdRoot.AddCommand(cmdFamily, cmdIface)
}

func main() {
	if err := cmdRoot.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

type session struct {
	cfg  *config.Config
	log  zerolog.Logger
	conn *genl.Conn
}

func openSession() (*session, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, err
		}
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log := initLogger(cfg.LogLevel)

	conn, err := genl.Dial(genl.WithLogger(log), genl.WithBufferSize(cfg.ReceiveBuffer))
	if err != nil {
		return nil, err
	}

	if sock, ok := conn.Socket().(*genl.NetlinkSocket); ok {
		if err := sock.SetReceiveTimeout(cfg.ReceiveTimeout()); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return &session{cfg: cfg, log: log, conn: conn}, nil
}

func runFamily(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.conn.Close()

	if len(args) == 0 {
		families, err := genl.ListFamilies(cmd.Context(), s.conn)
		if err != nil {
			return err
		}

		for _, f := range families {
			fmt.Printf("%-20s %d\n", f.Info.Name, f.ID)
		}

		return nil
	}

	f, err := genl.LookupFamily(cmd.Context(), s.conn, args[0])
	if err != nil {
		return err
	}

	printFamily(f)
	return nil
}

func printFamily(f genl.Family) {
	fmt.Printf("name: %s\n", f.Info.Name)
	fmt.Printf("id: %d\n", f.ID)
	fmt.Printf("version: %d\n", f.Info.Version)
	fmt.Printf("header size: %d\n", f.Info.HeaderSize)
	fmt.Printf("max attributes: %d\n", f.Info.MaxAttributes)

	fmt.Printf("operations:\n")
	for _, op := range f.Info.Operations {
		fmt.Printf("  %d flags %#x\n", op.ID, op.Flags)
	}

	fmt.Printf("multicast groups:\n")
	for _, g := range f.Info.MulticastGroups {
		fmt.Printf("  %s %d\n", g.Name, g.ID)
	}
}

func runIface(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.conn.Close()

	ifname := s.cfg.Interface
	if len(args) > 0 {
		ifname = args[0]
	}

	if ifname == "" {
		return fmt.Errorf("no interface given")
	}

	index, err := parseInterface(ifname)
	if err != nil {
		return err
	}

	return getInterface(cmd.Context(), s, index)
}

func parseInterface(arg string) (genl.InterfaceIndex, error) {
	if n, err := strconv.ParseUint(arg, 10, 32); err == nil {
		return genl.InterfaceIndex(n), nil
	}

	return genl.InterfaceIndexByName(arg)
}

func getInterface(ctx context.Context, s *session, index genl.InterfaceIndex) error {
	r := genl.NewResolver(s.conn)
	family, err := r.Resolve(ctx, genl.NL80211_GENL_NAME)
	if err != nil {
		return err
	}

	s.log.Info().Str("family", genl.NL80211_GENL_NAME).Uint16("id", family.ID).Msg("family resolved")

	nl := genl.NewNl80211(s.conn, family)
	ifi, err := nl.GetInterface(ctx, index)
	if err != nil {
		return err
	}

	fmt.Printf("ifindex: %d\n", ifi.Index)
	fmt.Printf("ifname: %s\n", ifi.Name)
	fmt.Printf("wiphy: %d\n", ifi.Wiphy)
	fmt.Printf("iftype: %d\n", ifi.Type)
	fmt.Printf("wdev: %#x\n", ifi.Wdev)
	return nil
}

package cli

import (
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	defaultServicePort = 5000
	defaultServiceUser = "clipgrab"
	serviceName        = "clipgrab"
	serviceHome        = "/var/lib/clipgrab"
	binaryPath         = "/usr/local/bin/clipgrab"
	serviceFilePath    = "/etc/systemd/system/clipgrab.service"
	serviceEnvDir      = "/etc/clipgrab"
	serviceEnvPath     = "/etc/clipgrab/clipgrab.env"
)

var (
	installPort    int
	installUser    string
	installCookies string
	installHistory bool
)

// installConfig describes a systemd installation
type installConfig struct {
	Port        int
	User        string
	CookiesFile string
	History     bool
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install clipgrab as a systemd service",
	Long: `Install clipgrab as a systemd service running "clipgrab serve".

This command will:
  - Copy the clipgrab binary to /usr/local/bin/
  - Write /etc/clipgrab/clipgrab.env with the service settings
  - Create a systemd service file and a dedicated user
  - Enable and start the service

Requires root/sudo privileges.

Examples:
  sudo clipgrab install
  sudo clipgrab install -p 9000 --cookies /etc/clipgrab/cookies.txt`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInstall()
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the clipgrab systemd service",
	Long: `Stop, disable and remove the clipgrab systemd service.

The binary and /etc/clipgrab are NOT removed.

Requires root/sudo privileges.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUninstall()
	},
}

func init() {
	installCmd.Flags().IntVarP(&installPort, "port", "p", defaultServicePort, "service port")
	installCmd.Flags().StringVarP(&installUser, "user", "u", defaultServiceUser, "user to run the service as")
	installCmd.Flags().StringVar(&installCookies, "cookies", "", "cookies.txt passed to yt-dlp")
	installCmd.Flags().BoolVar(&installHistory, "history", true, "keep a download history database")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
}

func checkSystemd() error {
	if runtime.GOOS != "linux" {
		return fmt.Errorf("clipgrab install is only supported on Linux with systemd")
	}
	if _, err := exec.LookPath("systemctl"); err != nil {
		return fmt.Errorf("systemd not found")
	}
	if os.Geteuid() != 0 {
		return fmt.Errorf("this command requires root privileges. Please run with sudo")
	}
	return nil
}

func runInstall() error {
	if err := checkSystemd(); err != nil {
		return err
	}

	cfg := installConfig{
		Port:        installPort,
		User:        installUser,
		CookiesFile: installCookies,
		History:     installHistory,
	}

	fmt.Println("Installing clipgrab service...")
	fmt.Println()

	if serviceExists() {
		fmt.Println("  Stopping existing service...")
		runSystemctl("stop", serviceName)
	}

	if cfg.User != "root" && !userExists(cfg.User) {
		fmt.Printf("  Creating user '%s'...\n", cfg.User)
		if err := exec.Command("useradd", "-r", "-s", "/bin/false", "-d", serviceHome, cfg.User).Run(); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
	}

	if err := os.MkdirAll(serviceHome, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", serviceHome, err)
	}
	if cfg.User != "root" {
		if err := chownRecursive(serviceHome, cfg.User); err != nil {
			return fmt.Errorf("failed to set directory ownership: %w", err)
		}
	}
	fmt.Printf("  ✓ Working directory %s\n", serviceHome)

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	if err := copyFile(executable, binaryPath); err != nil {
		return fmt.Errorf("failed to copy binary: %w", err)
	}
	fmt.Printf("  ✓ Binary installed to %s\n", binaryPath)

	if err := os.MkdirAll(serviceEnvDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := godotenv.Write(serviceEnv(cfg), serviceEnvPath); err != nil {
		return fmt.Errorf("failed to write %s: %w", serviceEnvPath, err)
	}
	fmt.Printf("  ✓ Settings written to %s\n", serviceEnvPath)

	if err := os.WriteFile(serviceFilePath, []byte(generateServiceFile(cfg)), 0644); err != nil {
		return fmt.Errorf("failed to write service file: %w", err)
	}
	fmt.Println("  ✓ Service file created")

	for _, args := range [][]string{{"daemon-reload"}, {"enable", serviceName}, {"start", serviceName}} {
		if err := runSystemctl(args...); err != nil {
			return fmt.Errorf("systemctl %s failed: %w", args[0], err)
		}
	}
	fmt.Println("  ✓ Service enabled and started")

	fmt.Println()
	fmt.Printf("clipgrab is running on http://localhost:%d\n", cfg.Port)
	fmt.Printf("Logs: journalctl -u %s -f\n", serviceName)
	return nil
}

func runUninstall() error {
	if err := checkSystemd(); err != nil {
		return err
	}

	fmt.Println("Uninstalling clipgrab service...")
	if serviceExists() {
		runSystemctl("stop", serviceName)
	}
	runSystemctl("disable", serviceName)

	if _, err := os.Stat(serviceFilePath); err == nil {
		if err := os.Remove(serviceFilePath); err != nil {
			return fmt.Errorf("failed to remove service file: %w", err)
		}
		runSystemctl("daemon-reload")
	}

	fmt.Println("  ✓ Service removed")
	fmt.Println()
	fmt.Println("The following were NOT removed:")
	fmt.Printf("  - Binary: %s\n", binaryPath)
	fmt.Printf("  - Settings: %s\n", serviceEnvDir)
	fmt.Printf("  - Working directory: %s\n", serviceHome)
	return nil
}

// serviceEnv returns the variables the service reads through its
// EnvironmentFile
func serviceEnv(cfg installConfig) map[string]string {
	env := map[string]string{
		"PORT":          strconv.Itoa(cfg.Port),
		"ENVIRONMENT":   "production",
		"WORKSPACE_DIR": filepath.Join(serviceHome, "tmp_downloads"),
	}
	if cfg.CookiesFile != "" {
		env["YTDLP_COOKIES_FILE"] = cfg.CookiesFile
	}
	if cfg.History {
		env["HISTORY_DB"] = filepath.Join(serviceHome, "history.db")
	}
	return env
}

func generateServiceFile(cfg installConfig) string {
	return fmt.Sprintf(`# %s
# Generated by clipgrab install

[Unit]
Description=clipgrab media download server
After=network.target

[Service]
Type=simple
User=%s
Group=%s
EnvironmentFile=%s
ExecStart=%s serve
Restart=always
RestartSec=5
WorkingDirectory=%s

# Security hardening
NoNewPrivileges=true
ProtectSystem=strict
ProtectHome=true
ReadWritePaths=%s
PrivateTmp=true

[Install]
WantedBy=multi-user.target
`, serviceFilePath, cfg.User, cfg.User, serviceEnvPath, binaryPath, serviceHome, serviceHome)
}

func serviceExists() bool {
	cmd := exec.Command("systemctl", "status", serviceName)
	err := cmd.Run()
	// exit code 3 means the unit exists but is stopped
	return err == nil || cmd.ProcessState.ExitCode() == 3
}

func runSystemctl(args ...string) error {
	cmd := exec.Command("systemctl", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func userExists(username string) bool {
	_, err := user.Lookup(username)
	return err == nil
}

func chownRecursive(path, username string) error {
	u, err := user.Lookup(username)
	if err != nil {
		return err
	}
	uid, _ := strconv.Atoi(u.Uid)
	gid, _ := strconv.Atoi(u.Gid)
	return filepath.Walk(path, func(name string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		return os.Chown(name, uid, gid)
	})
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0755)
}

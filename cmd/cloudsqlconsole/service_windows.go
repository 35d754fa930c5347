package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"
)

const serviceName = "CloudSqlConsole"
const serviceDisplayName = "CloudSqlConsole SQL Console Server"
const serviceDescription = "CloudSqlConsole - Role-gated SQL console over registered database connections"

// consoleService implements the svc.Handler interface
type consoleService struct {
	stopCh chan struct{}
}

// Execute is called by the Windows Service Control Manager
func (s *consoleService) Execute(args []string, changeReq <-chan svc.ChangeRequest, status chan<- svc.Status) (bool, uint32) {
	const cmdsAccepted = svc.AcceptStop | svc.AcceptShutdown

	status <- svc.Status{State: svc.StartPending}

	// Run from the executable directory so the metadata store and logs
	// land next to the binary
	exePath, err := os.Executable()
	if err == nil {
		os.Chdir(filepath.Dir(exePath))
	}

	s.stopCh = make(chan struct{})
	go func() {
		startServer()
	}()

	status <- svc.Status{State: svc.Running, Accepts: cmdsAccepted}

	for {
		c := <-changeReq
		switch c.Cmd {
		case svc.Interrogate:
			status <- c.CurrentStatus
		case svc.Stop, svc.Shutdown:
			status <- svc.Status{State: svc.StopPending}
			close(s.stopCh)
			// Give the server time to shut down gracefully
			time.Sleep(2 * time.Second)
			return false, 0
		}
	}
}

// maybeRunAsService runs the server under the service control manager when
// launched by it, and reports whether it did.
func maybeRunAsService() bool {
	isService, err := svc.IsWindowsService()
	if err != nil || !isService {
		return false
	}
	if err := svc.Run(serviceName, &consoleService{}); err != nil {
		fmt.Printf("Failed to run as service: %v\n", err)
		os.Exit(1)
	}
	return true
}

// handleServiceCommand dispatches the service management subcommands.
func handleServiceCommand(cmd string) bool {
	switch cmd {
	case "install":
		installService()
	case "uninstall":
		uninstallService()
	case "start":
		startService()
	case "stop":
		stopService()
	default:
		return false
	}
	return true
}

// installService registers the server as a Windows Service
func installService() {
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}

	m, err := mgr.Connect()
	if err != nil {
		fmt.Printf("Failed to connect to service manager: %v\n", err)
		fmt.Println("Hint: Run this command as Administrator.")
		os.Exit(1)
	}
	defer m.Disconnect()

	s, err := m.OpenService(serviceName)
	if err == nil {
		s.Close()
		fmt.Printf("Service '%s' is already installed.\n", serviceName)
		return
	}

	s, err = m.CreateService(serviceName, exePath, mgr.Config{
		DisplayName: serviceDisplayName,
		Description: serviceDescription,
		StartType:   mgr.StartAutomatic,
	})
	if err != nil {
		fmt.Printf("Failed to install service: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	fmt.Printf("Service '%s' installed successfully.\n", serviceName)
	fmt.Println("Start with: cloudsqlconsole start")
	fmt.Println("Or via: services.msc")
}

// uninstallService removes the server from Windows Services
func uninstallService() {
	m, err := mgr.Connect()
	if err != nil {
		fmt.Printf("Failed to connect to service manager: %v\n", err)
		fmt.Println("Hint: Run this command as Administrator.")
		os.Exit(1)
	}
	defer m.Disconnect()

	s, err := m.OpenService(serviceName)
	if err != nil {
		fmt.Printf("Service '%s' is not installed.\n", serviceName)
		return
	}
	defer s.Close()

	if err := s.Delete(); err != nil {
		fmt.Printf("Failed to uninstall service: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Service '%s' uninstalled successfully.\n", serviceName)
}

// startService starts the Windows Service
func startService() {
	m, err := mgr.Connect()
	if err != nil {
		fmt.Printf("Failed to connect to service manager: %v\n", err)
		fmt.Println("Hint: Run this command as Administrator.")
		os.Exit(1)
	}
	defer m.Disconnect()

	s, err := m.OpenService(serviceName)
	if err != nil {
		fmt.Printf("Service '%s' is not installed. Run 'cloudsqlconsole install' first.\n", serviceName)
		os.Exit(1)
	}
	defer s.Close()

	if err := s.Start(); err != nil {
		fmt.Printf("Failed to start service: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Service '%s' started.\n", serviceName)
}

// stopService stops the Windows Service
func stopService() {
	cmd := exec.Command("sc", "stop", serviceName)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Printf("Failed to stop service: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Service '%s' stopped.\n", serviceName)
}

package base

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
)

// SeleniumRenderer drives Chrome through ChromeDriver. The driver service and
// session are started on the first Render and reused until Close.
type SeleniumRenderer struct {
	DriverPath string
	Port       int

	mu      sync.Mutex
	service *selenium.Service
	driver  selenium.WebDriver
}

func NewSeleniumRenderer(driverPath string, port int) *SeleniumRenderer {
	return &SeleniumRenderer{DriverPath: driverPath, Port: port}
}

func (r *SeleniumRenderer) Render(ctx context.Context, url string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.start(); err != nil {
		return "", err
	}

	timeout := DefaultTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if err := r.driver.SetPageLoadTimeout(timeout); err != nil {
		return "", fmt.Errorf("set page load timeout: %w", err)
	}

	// WebDriver calls are not context aware; check before and after the
	// blocking navigation.
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := r.driver.Get(url); err != nil {
		return "", fmt.Errorf("navigation error: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	html, err := r.driver.PageSource()
	if err != nil {
		return "", fmt.Errorf("page source error: %w", err)
	}
	return html, nil
}

func (r *SeleniumRenderer) start() error {
	if r.driver != nil {
		return nil
	}

	service, err := selenium.NewChromeDriverService(r.DriverPath, r.Port)
	if err != nil {
		return fmt.Errorf("error starting Chrome driver service: %w", err)
	}

	caps := selenium.Capabilities{"browserName": "chrome"}
	caps.AddChrome(chrome.Capabilities{
		Args: []string{
			"--headless=new",
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-gpu",
			"--window-size=1920,1080",
			fmt.Sprintf("--user-agent=%s", userAgent),
		},
	})

	driver, err := selenium.NewRemote(caps, fmt.Sprintf("http://localhost:%d/wd/hub", r.Port))
	if err != nil {
		_ = service.Stop()
		return fmt.Errorf("error creating WebDriver: %w", err)
	}

	r.service = service
	r.driver = driver
	return nil
}

func (r *SeleniumRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.driver != nil {
		err = r.driver.Quit()
		r.driver = nil
	}
	if r.service != nil {
		if serr := r.service.Stop(); serr != nil && err == nil {
			err = serr
		}
		r.service = nil
	}
	return err
}

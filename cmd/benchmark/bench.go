package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

const (
	mockPort = 9091
	appPort  = 8081
	prefix   = "/api/v2/serve/model"
	benchKey = "bench-key-12345"
)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "Duration of the test")
	rate := flag.Int("rate", 50, "Requests per second")
	target := flag.String("target", "test", "Endpoint to attack: health, models or test")
	backendDelay := flag.Duration("backend-delay", 10*time.Millisecond, "Latency of the mock model backend")
	flag.Parse()

	go startMockBackend(*backendDelay)

	fmt.Println("Building application...")
	buildCmd := exec.Command("go", "build", "-o", "bin/server", "./cmd/server")
	buildCmd.Stdout = os.Stdout
	buildCmd.Stderr = os.Stderr
	if err := buildCmd.Run(); err != nil {
		log.Fatalf("Failed to build app: %v", err)
	}

	configFile := "bench_config.yaml"
	if err := os.WriteFile(configFile, []byte(benchConfig), 0o644); err != nil {
		log.Fatalf("Failed to write config: %v", err)
	}
	defer os.Remove(configFile)

	fmt.Println("Starting application...")
	cmd := exec.Command("./bin/server", "serve", "--config", configFile)

	logFile, _ := os.Create("bench_server.log")
	defer logFile.Close()
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}
	defer func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		_ = os.Remove("bench.db")
	}()

	base := fmt.Sprintf("http://localhost:%d%s", appPort, prefix)
	waitForApp(base + "/health")

	targeter, err := newTargeter(base, *target)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Running %s benchmark: %s duration, %d req/s\n", *target, *duration, *rate)

	attacker := vegeta.NewAttacker(vegeta.KeepAlive(true))
	var metrics vegeta.Metrics
	for res := range attacker.Attack(targeter, vegeta.Rate{Freq: *rate, Per: time.Second}, *duration, "Benchmark") {
		metrics.Add(res)
	}
	metrics.Close()

	fmt.Println("--------------------------------------------------")
	fmt.Println("99th percentile: ", metrics.Latencies.P99)
	fmt.Println("Mean:            ", metrics.Latencies.Mean)
	fmt.Println("Max:             ", metrics.Latencies.Max)
	fmt.Printf("Success:         %.2f%%\n", metrics.Success*100)
	fmt.Printf("Throughput:      %.2f req/s\n", metrics.Throughput)
	fmt.Println("--------------------------------------------------")

	if len(metrics.Errors) > 0 {
		fmt.Println("Error Set (first 5 unique):")
		seen := make(map[string]bool)
		for _, msg := range metrics.Errors {
			if len(seen) == 5 {
				break
			}
			if !seen[msg] {
				fmt.Println(msg)
				seen[msg] = true
			}
		}
	}

	printProbeCounters(fmt.Sprintf("http://localhost:%d/metrics", appPort))
}

func newTargeter(base, target string) (vegeta.Targeter, error) {
	header := http.Header{
		"Content-Type":  []string{"application/json"},
		"Authorization": []string{"Bearer " + benchKey},
	}

	switch target {
	case "health":
		return vegeta.NewStaticTargeter(vegeta.Target{Method: http.MethodGet, URL: base + "/health"}), nil
	case "models":
		return vegeta.NewStaticTargeter(vegeta.Target{Method: http.MethodGet, URL: base + "/models/bench-llm?worker_type=llm", Header: header}), nil
	case "test":
		body := fmt.Sprintf(`{"model":"bench-llm","worker_type":"llm","params":{"api_base":"http://localhost:%d/v1"}}`, mockPort)
		return vegeta.NewStaticTargeter(vegeta.Target{
			Method: http.MethodPost,
			URL:    base + "/models/test",
			Body:   []byte(body),
			Header: header,
		}), nil
	}
	return nil, fmt.Errorf("unknown target %q", target)
}

// startMockBackend serves an OpenAI-compatible chat endpoint.
func startMockBackend(delay time.Duration) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"bench-123","choices":[{"message":{"content":"Hi"}}]}`))
	})
	_ = http.ListenAndServe(fmt.Sprintf(":%d", mockPort), mux)
}

func printProbeCounters(url string) {
	resp, err := http.Get(url)
	if err != nil {
		fmt.Printf("metrics unavailable: %v\n", err)
		return
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "model_serve_probe_total") {
			fmt.Println(line)
		}
	}
}

func waitForApp(url string) {
	for i := 0; i < 20; i++ {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	log.Fatal("App timed out")
}

var benchConfig = fmt.Sprintf(`
server:
  port: "%d"
  env: production
  api_keys: "%s"
rate_limit:
  requests_per_second: 0
log:
  level: error
database:
  dsn: "file:bench.db?_busy_timeout=5000"
fallback:
  llm_model: bench-llm
  llm_api_base: "http://localhost:%d/v1"
`, appPort, benchKey, mockPort)

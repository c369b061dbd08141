package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var statusAddr string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query a running gateway's health, registry, and MCP state",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusAddr, "addr", "http://127.0.0.1:8402", "gateway base URL")
}

// runStatus polls the live server rather than reading a state file: the
// gateway has no persisted "corpus.json" equivalent, its state is the
// in-memory registry cache and MCP pool of a running process.
func runStatus(_ *cobra.Command, _ []string) error {
	st := newStyles(os.Stdout, globalFlags.JSON)
	client := &http.Client{Timeout: 5 * time.Second}

	health, healthErr := fetchJSON(client, statusAddr+"/health")
	registryModels, registryErr := fetchJSON(client, statusAddr+"/api/registry/models")
	mcpStatus, mcpErr := fetchJSON(client, statusAddr+"/api/mcp/status")

	if globalFlags.JSON {
		out := map[string]interface{}{
			"health":   orError(health, healthErr),
			"registry": orError(registryModels, registryErr),
			"mcp":      orError(mcpStatus, mcpErr),
		}
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(out)
	}

	fmt.Println(st.sectionHeader("agentgate status"))
	fmt.Println(st.kv("addr", statusAddr))

	if healthErr != nil {
		fmt.Println(st.errPrefix(), "unreachable:", healthErr)
		return nil
	}
	fmt.Println(st.kv("status", fmt.Sprint(health["status"])))
	fmt.Println(st.kv("version", fmt.Sprint(health["version"])))

	fmt.Println(st.sectionHeader("registry"))
	if registryErr != nil {
		fmt.Println(st.warnPrefix(), "registry query failed:", registryErr)
	} else if models, ok := registryModels["models"].([]interface{}); ok {
		fmt.Println(st.stat("models", len(models)))
		if lu, ok := registryModels["lastUpdated"]; ok {
			fmt.Println(st.kv("lastUpdated", fmt.Sprint(lu)))
		}
	}

	fmt.Println(st.sectionHeader("mcp"))
	if mcpErr != nil {
		fmt.Println(st.warnPrefix(), "mcp query failed:", mcpErr)
	} else if servers, ok := mcpStatus["status"].(map[string]interface{}); ok {
		for k, v := range servers {
			fmt.Println(st.kv(k, fmt.Sprint(v)))
		}
	}
	return nil
}

func fetchJSON(client *http.Client, url string) (map[string]interface{}, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s returned %d", url, resp.StatusCode)
	}
	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func orError(m map[string]interface{}, err error) interface{} {
	if err != nil {
		return map[string]string{"error": err.Error()}
	}
	return m
}

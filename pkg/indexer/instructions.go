package indexer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/apprepo/pkg/platform"
)

// InstructionsOverrideFile lets operators replace computed instructions per
// platform key. It lives in the package directory.
const InstructionsOverrideFile = "installation_instructions.yaml"

// Instruction is one way to install or upgrade a package.
type Instruction struct {
	Command      string   `json:"command,omitempty" yaml:"command,omitempty"`
	DownloadLink string   `json:"download_link,omitempty" yaml:"download_link,omitempty"`
	Notes        []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Instructions pairs the install and upgrade paths of a platform.
type Instructions struct {
	Install Instruction `json:"install" yaml:"install"`
	Upgrade Instruction `json:"upgrade" yaml:"upgrade"`
}

var vmwareUpgradeNotes = []string{
	"Upgrade the appliance through vCenter by using the VMware Update Manager Plug-in",
	"If vCenter does not have internet connectivity to this repository, you can download a ZIP/ISO update file from the list below and upload it to the VMware Update Manager",
}

func commands(install, upgrade string) Instructions {
	return Instructions{Install: Instruction{Command: install}, Upgrade: Instruction{Command: upgrade}}
}

func download(link string) Instructions {
	return Instructions{Install: Instruction{DownloadLink: link}, Upgrade: Instruction{DownloadLink: link}}
}

// installationInstructions derives per-platform instructions from the
// distributions of the latest release.
func (p *Pretty) installationInstructions(name string, distributions []Distribution) map[string]Instructions {
	result := map[string]Instructions{}
	baseURL := strings.TrimSuffix(p.opts.BaseURL, "/")

	for _, d := range distributions {
		switch platform.FamilyOf(d.Platform) {
		case platform.FamilyRedHat:
			if d.Extension != "rpm" {
				continue
			}
			key := strings.TrimPrefix(distributionName(d.Platform), "linux-")
			result[key] = commands(
				fmt.Sprintf("sudo yum install -y %s", name),
				fmt.Sprintf("sudo yum makecache; sudo yum update -y %s", name))
		case platform.FamilyUbuntu:
			if d.Extension != "deb" {
				continue
			}
			result["ubuntu"] = commands(
				fmt.Sprintf("sudo apt-get install -y %s", name),
				fmt.Sprintf("sudo apt-get update; sudo apt-get install -y %s", name))
		case platform.FamilySUSE:
			if d.Extension != "rpm" {
				continue
			}
			result["suse"] = commands(
				fmt.Sprintf("sudo zypper install -y %s", name),
				fmt.Sprintf("sudo zypper refresh; sudo zypper update -y %s", name))
		case platform.FamilyWindows:
			if d.Extension != "msi" && d.Extension != "exe" {
				continue
			}
			result["windows-"+d.Architecture] = download(d.Filepath)
		case platform.FamilyVMware:
			if d.Extension != "ova" {
				continue
			}
			entry := download(d.Filepath)
			entry.Upgrade.Notes = vmwareUpgradeNotes
			result["vmware"] = entry
		case platform.FamilySolaris, platform.FamilyAIX:
			cmd := fmt.Sprintf("curl -s %s/install/%s/%s | sudo sh -", baseURL, p.index, name)
			result[string(platform.FamilyOf(d.Platform))] = commands(cmd, cmd)
		case platform.FamilyPython:
			index := fmt.Sprintf("%s/packages/%s/%s", baseURL, p.index, TypePyPI)
			result["python"] = commands(
				fmt.Sprintf("pip install --extra-index-url %s %s", index, name),
				fmt.Sprintf("pip install --upgrade --extra-index-url %s %s", index, name))
		}
	}
	return result
}

func distributionName(platformName string) string {
	if d, ok := platform.SplitDistribution(platformName); ok {
		return d.Name
	}
	return platformName
}

// applyOverrides merges installation_instructions.yaml from packageDir over
// the computed instructions. A missing file is not an error.
func applyOverrides(packageDir string, computed map[string]Instructions) (map[string]Instructions, error) {
	data, err := os.ReadFile(filepath.Join(packageDir, InstructionsOverrideFile))
	if err != nil {
		if os.IsNotExist(err) {
			return computed, nil
		}
		return computed, err
	}
	var overrides map[string]Instructions
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return computed, fmt.Errorf("failed to parse %s: %w", filepath.Join(packageDir, InstructionsOverrideFile), err)
	}
	for key, value := range overrides {
		computed[key] = value
	}
	return computed, nil
}

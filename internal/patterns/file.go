package patterns

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ruleFile is the on-disk shape of a rule file:
//
//	rules:
//	  - label: EMPLOYEE_ID
//	    pattern: 'EMP-\d{6}'
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRuleFile reads an ordered rule list from a YAML file.
// Returns nil (no error) if the file does not exist. Rules are not compiled
// here; pass the result to Compile.
func LoadRuleFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse rule file %s: %w", path, err)
	}
	return rf.Rules, nil
}

package config

// Template is the commented promptvault.yaml written by 'promptvault init'.
const Template = `# promptvault.yaml - versioned prompt store configuration

# Directory holding the live prompt files
live_dir: prompts

# Where versions are stored (default: <live_dir>/versioned)
# versions_dir: versioned

snapshot:
  patterns: ["*.md"]
  collision_policy: suffix  # suffix | overwrite

retention:
  keep: 50

logging:
  level: info
  format: text  # text | json
  # file: .promptvault/promptvault.log

# metrics:
#   file: .promptvault/metrics.jsonl

journal:
  driver: sqlite  # sqlite | memory | none
  path: .promptvault/journal.db

hooks:
  enabled: false
  hooks:
    - name: approve-changes
      type: pause
      events: [change.applying]
      message: "Apply change to {{.File}} (backup {{.VersionID}})? [Y/n]"
`

// Gitignore lists the local state a project should not commit.
const Gitignore = `# promptvault
.promptvault/
`

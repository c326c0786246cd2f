package safety

// builtinPatterns is the default pattern catalogue loaded into every new
// Engine. Ordering here is declaration order, which is the order in which
// Engine.Validate reports warnings and suggestions; the result's risk level
// is the highest level among the matched patterns.
var builtinPatterns = []*Pattern{
	// --- Critical: irreversible, system-wide destruction ---------------
	{
		Name:        "rm-recursive-root",
		Regex:       `rm\s+(-\w*[rf]\w*\s+)+/\s*($|[;&|])`,
		RiskLevel:   RiskCritical,
		Description: "recursively removes the root filesystem",
		Suggestion:  "scope the path to a specific directory",
	},
	{
		Name:        "rm-recursive-system-dir",
		Regex:       `rm\s+(-\w*[rf]\w*\s+)+/(boot|etc|bin|sbin|usr|lib|lib64|dev|proc|sys|var)(\s|/|$)`,
		RiskLevel:   RiskCritical,
		Description: "recursively removes a critical system directory",
		Suggestion:  "double-check the target path before running",
	},
	{
		Name:        "rm-recursive-home",
		Regex:       `rm\s+(-\w*[rf]\w*\s+)+(~|\$HOME)\s*($|/\s*($|[;&|]))`,
		RiskLevel:   RiskCritical,
		Description: "recursively removes the entire home directory",
	},
	{
		Name:        "rm-recursive-wildcard-root",
		Regex:       `rm\s+(-\w*[rf]\w*\s+)+/\*`,
		RiskLevel:   RiskCritical,
		Description: "recursively removes everything under root via a wildcard",
	},
	{
		Name:        "rm-recursive-parent",
		Regex:       `rm\s+(-\w*[rf]\w*\s+)+(\.\./)*\.\.\s*($|[;&|])`,
		RiskLevel:   RiskCritical,
		Description: "recursively removes a parent directory",
		Suggestion:  "scope the path to a specific directory",
	},
	{
		Name:        "dd-to-block-device",
		Regex:       `dd\s+.*of=/dev/(sd|nvme|hd|xvd|vd)\w*\b`,
		RiskLevel:   RiskCritical,
		Description: "writes raw data directly to a block device, destroying its contents",
		Suggestion:  "verify the target device is not the boot disk",
	},
	{
		Name:        "mkfs-block-device",
		Regex:       `mkfs(\.\w+)?\s+.*\s*/dev/(sd|nvme|hd|xvd|vd)\w*\b`,
		RiskLevel:   RiskCritical,
		Description: "formats a block device, destroying its filesystem",
	},
	{
		Name:        "disk-clone",
		Regex:       `dd\s+.*if=/dev/(sd|nvme|hd|xvd|vd)\w*.*of=/dev/(sd|nvme|hd|xvd|vd)\w*`,
		RiskLevel:   RiskCritical,
		Description: "clones one disk onto another, overwriting the destination",
	},
	{
		Name:        "fork-bomb",
		Regex:       `:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;\s*:`,
		RiskLevel:   RiskCritical,
		Description: "classic fork bomb, exhausts process table and memory",
	},
	{
		Name:        "curl-pipe-shell-sudo",
		Regex:       `sudo\s+.*(curl|wget)\s+.*\|\s*(sudo\s+)?(bash|sh|zsh)\b`,
		RiskLevel:   RiskCritical,
		Description: "downloads and executes a remote script as root without review",
		Suggestion:  "download the script first and read it before executing",
	},
	{
		Name:        "kill-init",
		Regex:       `kill\s+(-9\s+)?-?1\b`,
		RiskLevel:   RiskHigh,
		Description: "sends a signal to the init process, likely halting the system",
	},
	{
		Name:        "netcat-listen-exec",
		Regex:       `nc\s+.*-e\s*/bin/(sh|bash)`,
		RiskLevel:   RiskCritical,
		Description: "opens a listening shell, exposing a remote-execution backdoor",
	},

	// --- High: dangerous but sometimes legitimate -----------------------
	{
		Name:        "chmod-777-root",
		Regex:       `chmod\s+(-R\s+)?777\s+/\s*($|[;&|])`,
		RiskLevel:   RiskHigh,
		Description: "grants world read/write/execute on the entire filesystem",
	},
	{
		Name:        "curl-pipe-shell",
		Regex:       `(curl|wget)\s+.*\|\s*(bash|sh|zsh)\b`,
		RiskLevel:   RiskHigh,
		Description: "downloads and executes a remote script without review",
		Suggestion:  "download the script first and inspect it before running",
	},
	{
		Name:        "rm-recursive-generic",
		Regex:       `rm\s+(-\w*[rf]\w*\s+)+\S+`,
		RiskLevel:   RiskHigh,
		Description: "recursively and forcibly removes files",
	},
	{
		Name:        "git-force-push",
		Regex:       `git\s+push\s+.*(--force|-f)\b`,
		RiskLevel:   RiskHigh,
		Description: "force-pushes, potentially discarding remote history",
		Suggestion:  "prefer --force-with-lease to avoid clobbering others' commits",
	},
	{
		Name:        "terraform-destroy",
		Regex:       `terraform\s+destroy\b`,
		RiskLevel:   RiskHigh,
		Description: "destroys provisioned infrastructure",
	},
	{
		Name:        "kubectl-delete-namespace",
		Regex:       `kubectl\s+delete\s+(ns|namespace)\s+\S+`,
		RiskLevel:   RiskHigh,
		Description: "deletes a Kubernetes namespace and everything in it",
	},
	{
		Name:        "drop-database",
		Regex:       `drop\s+database\b`,
		RiskLevel:   RiskHigh,
		Description: "drops an entire database",
	},
	{
		Name:        "drop-table",
		Regex:       `drop\s+table\b`,
		RiskLevel:   RiskHigh,
		Description: "drops a database table",
	},
	{
		Name:        "fdisk-parted",
		Regex:       `\b(fdisk|parted)\s+/dev/\w+`,
		RiskLevel:   RiskHigh,
		Description: "modifies disk partitions",
	},
	{
		Name:        "firewall-accept-all",
		Regex:       `iptables\s+.*-P\s+\w+\s+ACCEPT`,
		RiskLevel:   RiskHigh,
		Description: "sets a default-accept firewall policy",
	},
	{
		Name:        "selinux-disable",
		Regex:       `setenforce\s+0\b`,
		RiskLevel:   RiskHigh,
		Description: "disables SELinux enforcement",
	},
	{
		Name:        "crontab-clear",
		Regex:       `crontab\s+(-r|-\S*r\S*)\b`,
		RiskLevel:   RiskHigh,
		Description: "deletes the current user's crontab",
	},
	{
		Name:        "chown-recursive-root",
		Regex:       `chown\s+(-R\s+)?\S+\s+/\s*($|[;&|])`,
		RiskLevel:   RiskHigh,
		Description: "recursively changes ownership starting at the filesystem root",
	},
	{
		Name:        "docker-system-prune-all",
		Regex:       `docker\s+system\s+prune\s+.*(-a|--all)\b`,
		RiskLevel:   RiskHigh,
		Description: "removes all unused Docker images, containers and volumes",
	},

	// --- Moderate: state-changing but ordinarily recoverable ------------
	{
		Name:        "shutdown-now",
		Regex:       `\b(shutdown\s+-h\s+now|poweroff|reboot\s+(-f|--force))\b`,
		RiskLevel:   RiskModerate,
		Description: "shuts down or force-reboots the machine immediately",
	},
	{
		Name:        "sudo-prefixed",
		Regex:       `^sudo\s+`,
		RiskLevel:   RiskModerate,
		Description: "runs with elevated privileges",
	},
	{
		Name:        "package-remove",
		Regex:       `\b(apt|apt-get|yum|dnf)\s+(remove|purge|autoremove)\b`,
		RiskLevel:   RiskModerate,
		Description: "uninstalls system packages",
	},
	{
		Name:        "git-reset-hard",
		Regex:       `git\s+reset\s+--hard\b`,
		RiskLevel:   RiskModerate,
		Description: "discards uncommitted working tree changes",
	},
	{
		Name:        "git-clean-force",
		Regex:       `git\s+clean\s+(-\w*[fd]\w*\s*)+`,
		RiskLevel:   RiskModerate,
		Description: "deletes untracked files from the working tree",
	},
	{
		Name:        "systemctl-stop-disable",
		Regex:       `systemctl\s+(stop|disable)\s+\S+`,
		RiskLevel:   RiskModerate,
		Description: "stops or disables a system service",
	},
	{
		Name:        "mv-overwrite-glob",
		Regex:       `mv\s+.*\*.*\s+\S+`,
		RiskLevel:   RiskModerate,
		Description: "moves multiple files via a glob, risking unintended overwrites",
	},
	{
		Name:        "truncate-file",
		Regex:       `>\s*/\S+\s*$`,
		RiskLevel:   RiskModerate,
		Description: "truncates or overwrites a file via shell redirection",
	},
}

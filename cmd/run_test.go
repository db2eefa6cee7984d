package cmd

import "testing"

func TestCommandLine(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "single argument passes verbatim",
			args: []string{"make test 2>&1 | tee out"},
			want: "make test 2>&1 | tee out",
		},
		{
			name: "bare words join unquoted",
			args: []string{"make", "test"},
			want: "make test",
		},
		{
			name: "argument with spaces keeps its word boundary",
			args: []string{"grep", "a b", "file"},
			want: "grep 'a b' file",
		},
		{
			name: "argument with shell metacharacters is quoted",
			args: []string{"echo", "$HOME"},
			want: "echo '$HOME'",
		},
		{
			name: "embedded single quote survives",
			args: []string{"echo", "it's"},
			want: `echo 'it'\''s'`,
		},
		{
			name: "empty argument is preserved",
			args: []string{"printf", ""},
			want: "printf ''",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := commandLine(tt.args); got != tt.want {
				t.Errorf("commandLine(%q) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

// Package standup shows the standup pattern and a reminder notification
// during the team's daily standup window.
package standup

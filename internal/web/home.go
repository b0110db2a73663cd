package web

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

func Home(games []GameSummary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, homeHead); err != nil {
			return err
		}
		if _, err := io.WriteString(w, renderGameList(games)); err != nil {
			return err
		}
		_, err := io.WriteString(w, homeTail)
		return err
	})
}

func renderGameList(games []GameSummary) string {
	var b strings.Builder
	b.WriteString(`      <section class="panel">
        <h2>Open games</h2>
`)
	if len(games) == 0 {
		b.WriteString(`        <p class="empty">No public games are waiting for players.</p>
`)
	} else {
		b.WriteString(`        <ul id="openGames" class="games">
`)
		for _, game := range games {
			b.WriteString(`          <li data-code="`)
			b.WriteString(templ.EscapeString(game.Code))
			b.WriteString(`"><strong>`)
			b.WriteString(templ.EscapeString(game.Code))
			b.WriteString(`</strong> hosted by `)
			b.WriteString(templ.EscapeString(game.HostName))
			b.WriteString(` &middot; `)
			b.WriteString(itoa(game.Players))
			b.WriteString(` player(s) &middot; opened `)
			b.WriteString(formatTime(game.CreatedAt))
			b.WriteString("</li>\n")
		}
		b.WriteString("        </ul>\n")
	}
	b.WriteString("      </section>\n")
	return b.String()
}

const homeHead = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Quiz Live</title>
  </head>
  <body>
    <main class="shell">
      <header class="hero">
        <span class="tag">Quiz Live</span>
        <h1>Answer together. Score fast.</h1>
        <p>Host a trivia game or join one with its 6-digit code.</p>
      </header>

      <section class="panel">
        <form id="nameForm">
          <input name="name" placeholder="Display name" autocomplete="name" required/>
          <button type="submit" class="secondary">Set name</button>
        </form>
        <button id="createGame" class="primary">Create public game</button>
        <form id="joinForm" class="join-form">
          <input name="code" placeholder="Game code" inputmode="numeric" maxlength="6" autocomplete="off" required/>
          <button type="submit" class="secondary">Join game</button>
        </form>
        <div id="result" class="result"></div>
      </section>
`

const homeTail = `    </main>

    <script>
      const result = document.getElementById("result");
      let token = sessionStorage.getItem("quiz_token");

      async function api(path, body) {
        const res = await fetch(path, {
          method: "POST",
          headers: Object.assign({ "Content-Type": "application/json" }, token ? { Authorization: "Bearer " + token } : {}),
          body: JSON.stringify(body || {})
        });
        const data = await res.json();
        if (!res.ok) {
          throw new Error(data.error || "Request failed.");
        }
        return data;
      }

      document.getElementById("nameForm").addEventListener("submit", async (event) => {
        event.preventDefault();
        try {
          const data = await api("/api/auth/guest", { display_name: event.target.elements.name.value.trim() });
          token = data.token;
          sessionStorage.setItem("quiz_token", token);
          result.textContent = "Playing as " + data.display_name + ".";
        } catch (err) {
          result.textContent = err.message;
        }
      });

      document.getElementById("createGame").addEventListener("click", async () => {
        try {
          const data = await api("/api/games", { is_public: true });
          result.textContent = "Game created. Code: " + data.code;
        } catch (err) {
          result.textContent = err.message;
        }
      });

      document.getElementById("joinForm").addEventListener("submit", async (event) => {
        event.preventDefault();
        const code = event.target.elements.code.value.trim();
        try {
          const data = await api("/api/games/" + encodeURIComponent(code) + "/join");
          result.textContent = "Joined game " + code + " with " + data.players.length + " player(s).";
        } catch (err) {
          result.textContent = err.message;
        }
      });
    </script>
  </body>
</html>
`

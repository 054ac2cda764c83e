package webui

import (
	"fmt"
	"html"
)

const siteName = "Everpedia"

const baseStyle = `<style>
body{margin:0;font-family:Georgia,serif;color:#202122;background:#fff}
header{border-bottom:1px solid #a2a9b1;padding:0.6em 1em;display:flex;gap:1em;align-items:baseline}
header a{color:#202122;text-decoration:none;font-weight:bold;font-size:1.3em}
header form{flex:1;text-align:right}
header input{width:min(22em,60%);padding:0.3em 0.5em;border:1px solid #a2a9b1}
main{max-width:60em;margin:0 auto;padding:1em;line-height:1.6}
h1{border-bottom:1px solid #a2a9b1;font-weight:normal}
h2{border-bottom:1px solid #eaecf0;font-weight:normal}
a{color:#3366cc}
.loading{color:#54595d;font-style:italic;padding:2em 0}
.error-fragment{border:1px solid #d33;background:#fee7e6;padding:0.8em 1em;margin:1em 0}
.infobox{float:right;clear:right;width:17em;margin:0 0 1em 1.5em;border:1px solid #a2a9b1;background:#f8f9fa;padding:0.6em;font-size:0.9em}
.infobox-title{text-align:center;font-weight:bold;margin-bottom:0.4em}
.infobox img{max-width:100%}
.infobox table{border-collapse:collapse;width:100%}
.infobox th{text-align:left;vertical-align:top;padding:0.15em 0.5em 0.15em 0;width:38%}
.toc{display:inline-block;border:1px solid #a2a9b1;background:#f8f9fa;padding:0.6em 1.2em;margin:0.5em 0;font-size:0.95em}
.toc-title{text-align:center;font-weight:bold}
.toc ol{margin:0.2em 0;padding-left:1.4em;list-style:none}
.article-figure{float:right;clear:right;margin:0 0 1em 1.5em;width:18em;font-size:0.85em;color:#54595d}
.article-figure img,img.lazy-image{max-width:100%}
img.lazy-image[data-hidden]{display:none}
.suggestions{list-style:none;padding:0}
.suggestions li{padding:0.25em 0}
</style>`

// imagePollScript implements the client half of the image readiness
// contract: probe the image URL, retry on 202 after a short interval, swap
// the source in on success, and hide the element on terminal failure.
const imagePollScript = `<script>
(function(){
var RETRY_MS=3000;
function poll(img){
  var src=img.getAttribute("data-src")||img.getAttribute("src");
  fetch(src,{method:"GET"}).then(function(r){
    if(r.status===202){setTimeout(function(){poll(img)},RETRY_MS);return}
    if(!r.ok){img.setAttribute("data-hidden","");return}
    return r.blob().then(function(b){
      img.src=URL.createObjectURL(b);
      img.removeAttribute("data-hidden");
    });
  }).catch(function(){img.setAttribute("data-hidden","")});
}
document.querySelectorAll("img.lazy-image").forEach(function(img){
  img.addEventListener("error",function once(){
    img.removeEventListener("error",once);
    img.setAttribute("data-hidden","");
    poll(img);
  });
});
})();
</script>`

const searchScript = `<script>
(function(){
var box=document.getElementById("search-box");
var list=document.getElementById("search-results");
if(!box||!list)return;
var timer=null;
box.addEventListener("input",function(){
  clearTimeout(timer);
  var q=box.value.trim();
  if(q.length<2){list.innerHTML="";return}
  timer=setTimeout(function(){
    fetch("/api/search?q="+encodeURIComponent(q)).then(function(r){return r.json()}).then(function(items){
      list.innerHTML=items.map(function(s){
        return '<li><a href="/wiki/'+s.slug+'">'+s.title+"</a></li>";
      }).join("");
    });
  },300);
});
})();
</script>`

func pageHead(title string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s — %s</title>
%s</head>
<body>
<header><a href="/">%s</a><form action="/" method="get"></form></header>
<main id="article">
`, html.EscapeString(title), siteName, baseStyle, siteName)
}

// pageShellOpen is everything the handler can send before generation starts:
// document head, chrome, and a loading indicator the completed body hides.
func pageShellOpen(title string) string {
	return pageHead(title) + fmt.Sprintf(`<h1>%s</h1>
<div class="loading" id="loading">Writing this article for you. This can take a little while&hellip;</div>
`, html.EscapeString(title))
}

// articleFragment appends the finished body and hides the loader. Every write
// after the shell must be a valid appended fragment, never a second document.
func articleFragment(body string) string {
	return `<div class="article-body">` + body + "</div>\n" +
		`<script>var l=document.getElementById("loading");if(l)l.remove();</script>` + "\n"
}

const errorFragment = `<div class="error-fragment">Article generation failed. Please try again in a moment.</div>
<script>var l=document.getElementById("loading");if(l)l.remove();</script>
`

func pageShellClose() string {
	return "</main>\n" + imagePollScript + "\n</body>\n</html>\n"
}

// fullPage renders a complete document in one write, used for cached pages
// and for error documents where no bytes have been sent yet.
func fullPage(title, body string) string {
	return pageHead(title) + fmt.Sprintf("<h1>%s</h1>\n", html.EscapeString(title)) +
		articleFragment(body) + pageShellClose()
}

func notFoundPage(title string) string {
	body := fmt.Sprintf(`<p>There is no article called <b>%s</b>, and there will not be one: the topic did not pass review.</p>
<p><a href="/">Try searching for something else.</a></p>`, html.EscapeString(title))
	return pageHead("Page not found") + "<h1>Page not found</h1>\n" + body + "\n" + pageShellClose()
}

func errorPage() string {
	body := `<p>Something went wrong while generating this article. Please try again in a moment.</p>`
	return pageHead("Server error") + "<h1>Server error</h1>\n" + body + "\n" + pageShellClose()
}

func landingPage() string {
	return pageHead("The encyclopedia that writes itself") + `<h1>` + siteName + `</h1>
<p>Look up anything. If the article does not exist yet, it is written for you on the spot.</p>
<input id="search-box" type="search" placeholder="Search Everpedia" autofocus autocomplete="off">
<ul id="search-results" class="suggestions"></ul>
<p>Or start somewhere classic: <a href="/wiki/Roman_Empire">Roman Empire</a>,
<a href="/wiki/Quantum_Computing">Quantum Computing</a>,
<a href="/wiki/Eiffel_Tower">Eiffel Tower</a>.</p>
` + searchScript + "\n</main>\n</body>\n</html>\n"
}
